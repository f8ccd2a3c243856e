package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — запись уже существует (конфликт уникальности).
	ErrAlreadyExists = errors.New("already exists")

	// ErrClaimConflict — строку забрал конкурентный claim.
	// Ожидаемая ситуация при нескольких экземплярах, не сбой.
	ErrClaimConflict = errors.New("claim conflict")
)
