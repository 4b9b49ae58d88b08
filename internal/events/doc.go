// Package events предоставляет публикацию событий выполнения маршрутов в RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление обменника, очередей и привязок
//   - publisher.go  — публикация событий
//
// Типы сообщений:
//   - stage.completed — этап маршрута завершён (успешно или с ошибкой)
//   - flow.finished   — маршрут завершён целиком (COMPLETED или HALTED)
//
// Публикация опциональна: без MQ_URL оркестратор работает без событий.
package events
