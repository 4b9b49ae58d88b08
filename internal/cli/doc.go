// Package cli содержит команды инструмента autoeda.
//
// Структура:
//   - client.go  — HTTP-клиент для API оркестратора
//   - output.go  — табличный и JSON-вывод
//   - flow.go    — запуск потоков, справка по этапам
//   - session.go — история и очистка сессий
//   - design.go  — версии артефактов и журнал запусков дизайна
//
// CLI не выполняет потоки сам: все команды ходят в HTTP API
// оркестратора (--api-url, по умолчанию из AGENT_URL либо
// http://localhost:8080).
package cli
