// Package session хранит контекст вызывающего между запросами.
//
// Session Store — единственное разделяемое изменяемое состояние системы:
// история выполненных этапов и снимки last-known-good параметров
// по (design, stage). Resolver читает их при каждом новом запросе
// с тем же идентификатором сессии.
package session
