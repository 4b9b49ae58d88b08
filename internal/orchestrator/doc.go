// Package orchestrator выполняет потоки физического дизайна поверх
// удалённых сервисов этапов.
//
// Конечный автомат выполнения:
//
//	PENDING → RESOLVING → DISPATCHING → … → COMPLETED
//	                    ↘ HALTED (первый сбой: конфликт, отсутствие
//	                      чекпоинта или версии, ошибка этапа)
//
// Этапы идут строго по порядку; чекпоинт и версии успешного этапа
// передаются следующему. Сессия получает снимок last-known-good только
// после фактически выполненного этапа: сбой разрешения параметров
// сессию не меняет.
package orchestrator
