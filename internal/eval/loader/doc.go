// Package loader provides template source loaders.
//
// A loader maps a template name, usually a relative file path such as
// "queries/daily.sql", to its raw source text. Loaders are used both to
// compile file templates and to pre-resolve file contents into template
// fields.
//
// Available loaders:
//   - FSLoader - reads from an afero filesystem below one or more search roots
//   - RedisLoader - reads sources stored as Redis strings under a key prefix
//   - MapLoader - serves sources from memory
//   - ChainLoader - tries several loaders in order
//
// Example usage:
//
//	l := loader.NewFSLoader(afero.NewOsFs(), "/opt/templates")
//	src, err := l.GetSource("queries/daily.sql")
package loader
