// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go         — Handler с DI (оркестратор, сессии, registry, журнал)
//   - routes.go          — регистрация маршрутов
//   - middleware.go      — middleware (logging, recovery)
//   - response.go        — унифицированные JSON-ответы
//   - dto.go             — Data Transfer Objects (request/response)
//   - flow_handler.go    — запуск потоков и справка по этапам
//   - session_handler.go — история и очистка сессий
//   - version_handler.go — версии артефактов дизайна
package api
