// Package resolver превращает слабо заданный запрос в конкретные
// параметры этапов.
//
// Resolver объединяет явные переопределения, память сессии, пресеты
// стратегий и значения по умолчанию, подключает входные чекпоинты
// и определяет версии артефактов. Неразрешимые ситуации — конфликт,
// отсутствующий чекпоинт, недоступная версия — возвращаются как
// типизированные ошибки до какого-либо удалённого вызова.
package resolver
