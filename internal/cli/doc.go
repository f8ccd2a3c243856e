// Package cli реализует инструмент командной строки Chronos.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Chronos API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления projects и jobs и для просмотра
// истории runs и attempts.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Chronos API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	jobs, err := client.ListJobs(cli.ListJobsOpts{})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: chronos job list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - project: list, create, show
//   - job: list, create, show, pause, resume, tune, delete
//   - run: list, show, attempts
//
// Каждая группа создаётся через фабричную функцию (NewJobCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
