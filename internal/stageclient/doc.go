// Package stageclient выполняет вызовы внешних EDA-сервисов.
//
// Каждый этап потока — отдельный HTTP-сервис с единым контрактом:
// JSON-запрос с параметрами, JSON-ответ со статусом "ok" либо текстом
// ошибки. Клиент нормализует любой исход в StageResult.
package stageclient
