// Package domain models car wash transactions and the planning pipeline built
// on them.
//
// # Input Data
//
// Transactions arrive as a point-of-sale CSV export. The default export carries
// the columns orderId, location, licensePlate, package, employee, type, time and
// total. Only the timestamp and amount columns are required; the column names
// are configurable through [ColumnMapping].
//
// Amounts are cleaned before parsing: every character except digits, "." and
// "-" is removed, so "$12.50" and "12.50 USD" both read as 12.50. A value that
// is empty after cleaning is a row error, never zero.
//
// Timestamps without an offset are wall-clock readings in the site's civil
// timezone (America/Chicago by default). A reading that falls in a
// spring-forward gap does not exist and is rejected. A reading in the repeated
// fall-back hour cannot be placed on a single instant and is rejected too.
//
// Customer identifiers are license plates. Blank values and the "UNKNOWN"
// placeholder are treated as unidentified visits.
//
// # Cells
//
// Demand is modeled per (weekday, hour-of-day) cell in civil time. Weekdays use
// [time.Weekday], so Sunday is 0. A cell's statistics are computed across the
// distinct dates on which it had at least one transaction; a cell with no
// history is absent from the [BaselineProfile], never zero.
//
// # Forecast Heuristics
//
// The adjusted demand for an hour is baseline × clamp(rain × traffic, 0, 1.5):
//
//	rain(p)    = 1 - (1 - floor) × clamp((p - onset) / (100 - onset), 0, 1)
//	traffic(i) = min + (max - min) × clamp(i, 0, 1)
//
// With defaults (onset 20%, floor 0.5, traffic 0.8..1.2) a dry day with a
// neutral traffic index of 0.5 leaves the baseline unchanged. When no weather
// is available the forecast is the baseline itself and is flagged degraded.
//
// Hours with no baseline fall back to the mean of all observed cell means and
// are flagged low-confidence.
//
// # Staffing
//
// Staff counts come from an ordered threshold table such as
// "20:2,40:3,60:4,80:5,*:6": demand up to 20 needs 2 staff, up to 40 needs 3,
// and anything above 80 needs 6. Staff counts must not decrease as bounds rise,
// so the plan is monotonic in demand.
package domain
