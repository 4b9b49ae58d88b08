// Package telemetry — structured logging и метрики.
//
// Логирование строится на log/slog: JSON для production,
// text для локальной разработки. Метрики — prometheus-коллекторы,
// регистрируемые через promauto.
package telemetry
