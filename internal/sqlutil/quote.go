// Package sqlutil provides SQL dialect helpers for wikietl.
package sqlutil

import (
	"regexp"
	"strings"
)

// Dialect identifies the SQL flavour of the destination database.
type Dialect string

const (
	SQLite Dialect = "sqlite"
	MySQL  Dialect = "mysql"
)

// QuoteIdentifier quotes an identifier (table name, column name) for the dialect.
// SQLite uses double quotes, MySQL uses backticks; embedded quote characters are doubled.
// Example: SQLite.QuoteIdentifier("my_table") -> "\"my_table\""
// Example: MySQL.QuoteIdentifier("my`table") -> "`my``table`"
func (d Dialect) QuoteIdentifier(name string) string {
	q := d.quoteChar()
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// QuoteIdentifierSafe quotes an identifier after validating it.
// Returns an error if the identifier contains invalid characters.
func (d Dialect) QuoteIdentifierSafe(name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return d.QuoteIdentifier(name), nil
}

// FloatType returns the column type used for floating point columns.
func (d Dialect) FloatType() string {
	if d == MySQL {
		return "DOUBLE"
	}
	return "REAL"
}

// TextType returns the column type used for text columns.
func (d Dialect) TextType() string {
	return "TEXT"
}

func (d Dialect) quoteChar() string {
	if d == MySQL {
		return "`"
	}
	return `"`
}

// validIdentifierRegex restricts identifiers to alphanumeric characters and underscore.
var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// IsValidIdentifier checks if a name is a valid identifier.
// It validates that the name only contains alphanumeric characters and underscores.
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name)
}

// InvalidIdentifierError is returned when an identifier contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must contain only alphanumeric characters and underscores)"
}
