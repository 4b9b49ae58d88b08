// Package ledger предоставляет аудитный журнал запусков маршрутов в PostgreSQL.
//
// Журнал опционален: без DB_URL оркестратор работает без него.
// Схема создаётся автоматически при старте (EnsureSchema).
package ledger
