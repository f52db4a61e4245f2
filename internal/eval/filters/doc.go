// Package filters provides the date and timestamp filters available to every
// template environment.
//
// Filters are pure functions registered under fixed names so that existing
// templates keep working:
//
//	{{ logical_date | ds }}                # 2024-06-01
//	{{ logical_date | ds_nodash }}         # 20240601
//	{{ logical_date | ts }}                # 2024-06-01T00:00:00+00:00
//	{{ logical_date | ts_nodash }}         # 20240601T000000
//	{{ logical_date | ts_nodash_with_tz }} # 20240601T000000+0000
//
// Accepted inputs are time.Time, *time.Time and the civil Date, DateTime and
// Time types. A nil input yields nil.
package filters
