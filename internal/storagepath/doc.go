// Package storagepath implements object storage paths such as
// s3://bucket/key that can be rendered as template fields.
//
// Only the textual path of an ObjectStoragePath is a template; the
// connection id and storage options are carried through unchanged:
//
//	p, err := storagepath.Parse("s3://warehouse/events/{{ logical_date | ds }}/", "aws_default", nil)
//
// A rendered path is rebuilt through Serialize and Deserialize, so values
// serialized by an older version of this package remain readable.
package storagepath
