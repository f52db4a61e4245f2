// Package task loads template field owners from YAML documents.
//
// A task document lists its fields, which of them are templates and the
// suffixes naming template files, together with a default render context:
//
//	template_fields: [sql, params]
//	template_ext: [.sql]
//	fields:
//	  sql: queries/daily.sql
//	  params:
//	    day: "{{ logical_date | ds }}"
//	    raw: !literal "{{ not rendered }}"
//	context:
//	  logical_date: !!timestamp 2024-06-01T00:00:00Z
//
// Field and key order are preserved when the rendered task is written back.
package task
