package query

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rs/halrest/schema"
)

const (
	opAnd            = "$and"
	opOr             = "$or"
	opExists         = "$exists"
	opIn             = "$in"
	opNotIn          = "$nin"
	opNotEqual       = "$ne"
	opLowerThan      = "$lt"
	opLowerOrEqual   = "$lte"
	opGreaterThan    = "$gt"
	opGreaterOrEqual = "$gte"
	opLike           = "$like"
)

// Predicate defines an expression against a schema to perform a match on
// entity data. An empty predicate matches everything.
type Predicate []Expression

// Match implements Expression interface.
func (e Predicate) Match(payload map[string]interface{}) bool {
	for _, subQuery := range e {
		if !subQuery.Match(payload) {
			return false
		}
	}
	return true
}

// String implements Expression interface.
func (e Predicate) String() string {
	if len(e) == 0 {
		return "{}"
	}
	s := make([]string, 0, len(e))
	for _, subQuery := range e {
		s = append(s, subQuery.String())
	}
	return "{" + strings.Join(s, ", ") + "}"
}

// Validate implements Expression interface.
func (e Predicate) Validate(s schema.Schema) error {
	return validateExpressions(e, s)
}

// Fields returns the sorted list of field names referenced by the predicate.
func (e Predicate) Fields() []string {
	set := map[string]struct{}{}
	collectFields(e, set)
	fields := make([]string, 0, len(set))
	for f := range set {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func collectFields(exps []Expression, set map[string]struct{}) {
	for _, exp := range exps {
		switch t := exp.(type) {
		case *And:
			collectFields(*t, set)
		case *Or:
			collectFields(*t, set)
		case Predicate:
			collectFields(t, set)
		case fielder:
			set[t.field()] = struct{}{}
		}
	}
}

// Expression is a query or query component that can be matched against a
// payload.
type Expression interface {
	Match(payload map[string]interface{}) bool
	// Validate checks the expression against the schema and normalizes its
	// values using the fields' validators.
	Validate(s schema.Schema) error
	String() string
}

type fielder interface {
	field() string
}

// Value represents any kind of value to use in query.
type Value interface{}

// And joins query clauses with a logical AND, returns all entities that match
// the conditions of both clauses.
type And []Expression

// Match implements Expression interface.
func (e *And) Match(payload map[string]interface{}) bool {
	for _, subQuery := range *e {
		if !subQuery.Match(payload) {
			return false
		}
	}
	return true
}

// Validate implements Expression interface.
func (e *And) Validate(s schema.Schema) error {
	return validateExpressions(*e, s)
}

// String implements Expression interface.
func (e *And) String() string {
	return joinString(opAnd, *e)
}

// Or joins query clauses with a logical OR, returns all entities that match
// the conditions of either clause.
type Or []Expression

// Match implements Expression interface.
func (e *Or) Match(payload map[string]interface{}) bool {
	for _, subQuery := range *e {
		if subQuery.Match(payload) {
			return true
		}
	}
	return false
}

// Validate implements Expression interface.
func (e *Or) Validate(s schema.Schema) error {
	return validateExpressions(*e, s)
}

// String implements Expression interface.
func (e *Or) String() string {
	return joinString(opOr, *e)
}

func joinString(op string, exps []Expression) string {
	s := make([]string, 0, len(exps))
	for _, subQuery := range exps {
		s = append(s, "{"+subQuery.String()+"}")
	}
	return op + ": [" + strings.Join(s, ", ") + "]"
}

// In matches any of the values specified in an array.
type In struct {
	Field  string
	Values []Value
}

func (e *In) field() string { return e.Field }

// Match implements Expression interface.
func (e *In) Match(payload map[string]interface{}) bool {
	value := getField(payload, e.Field)
	for _, v := range e.Values {
		if equalValues(v, value) {
			return true
		}
	}
	return false
}

// Validate implements Expression interface.
func (e *In) Validate(s schema.Schema) error {
	return validateValues(e.Field, e.Values, s)
}

// String implements Expression interface.
func (e *In) String() string {
	return quoteField(e.Field) + ": {" + opIn + ": " + valuesString(e.Values) + "}"
}

// NotIn matches none of the values specified in an array.
type NotIn struct {
	Field  string
	Values []Value
}

func (e *NotIn) field() string { return e.Field }

// Match implements Expression interface.
func (e *NotIn) Match(payload map[string]interface{}) bool {
	value := getField(payload, e.Field)
	for _, v := range e.Values {
		if equalValues(v, value) {
			return false
		}
	}
	return true
}

// Validate implements Expression interface.
func (e *NotIn) Validate(s schema.Schema) error {
	return validateValues(e.Field, e.Values, s)
}

// String implements Expression interface.
func (e *NotIn) String() string {
	return quoteField(e.Field) + ": {" + opNotIn + ": " + valuesString(e.Values) + "}"
}

// Equal matches all values that are equal to a specified value.
type Equal struct {
	Field string
	Value Value
}

func (e *Equal) field() string { return e.Field }

// Match implements Expression interface.
func (e *Equal) Match(payload map[string]interface{}) bool {
	return equalValues(getField(payload, e.Field), e.Value)
}

// Validate implements Expression interface.
func (e *Equal) Validate(s schema.Schema) (err error) {
	e.Value, err = validateValue(e.Field, e.Value, s)
	return err
}

// String implements Expression interface.
func (e *Equal) String() string {
	return quoteField(e.Field) + ": " + valueString(e.Value)
}

// NotEqual matches all values that are not equal to a specified value.
type NotEqual struct {
	Field string
	Value Value
}

func (e *NotEqual) field() string { return e.Field }

// Match implements Expression interface.
func (e *NotEqual) Match(payload map[string]interface{}) bool {
	return !equalValues(getField(payload, e.Field), e.Value)
}

// Validate implements Expression interface.
func (e *NotEqual) Validate(s schema.Schema) (err error) {
	e.Value, err = validateValue(e.Field, e.Value, s)
	return err
}

// String implements Expression interface.
func (e *NotEqual) String() string {
	return quoteField(e.Field) + ": {" + opNotEqual + ": " + valueString(e.Value) + "}"
}

// Exist matches all values which are present, even if nil.
type Exist struct {
	Field string
}

func (e *Exist) field() string { return e.Field }

// Match implements Expression interface.
func (e *Exist) Match(payload map[string]interface{}) bool {
	_, found := getFieldExist(payload, e.Field)
	return found
}

// Validate implements Expression interface.
func (e *Exist) Validate(s schema.Schema) error {
	_, err := getSchemaField(e.Field, s)
	return err
}

// String implements Expression interface.
func (e *Exist) String() string {
	return quoteField(e.Field) + ": {" + opExists + ": true}"
}

// NotExist matches all values which are absent.
type NotExist struct {
	Field string
}

func (e *NotExist) field() string { return e.Field }

// Match implements Expression interface.
func (e *NotExist) Match(payload map[string]interface{}) bool {
	_, found := getFieldExist(payload, e.Field)
	return !found
}

// Validate implements Expression interface.
func (e *NotExist) Validate(s schema.Schema) error {
	_, err := getSchemaField(e.Field, s)
	return err
}

// String implements Expression interface.
func (e *NotExist) String() string {
	return quoteField(e.Field) + ": {" + opExists + ": false}"
}

// GreaterThan matches values that are greater than a specified value.
type GreaterThan struct {
	Field string
	Value Value
}

func (e *GreaterThan) field() string { return e.Field }

// Match implements Expression interface.
func (e *GreaterThan) Match(payload map[string]interface{}) bool {
	c, ok := compareValues(getField(payload, e.Field), e.Value)
	return ok && c > 0
}

// Validate implements Expression interface.
func (e *GreaterThan) Validate(s schema.Schema) (err error) {
	e.Value, err = validateValue(e.Field, e.Value, s)
	return err
}

// String implements Expression interface.
func (e *GreaterThan) String() string {
	return quoteField(e.Field) + ": {" + opGreaterThan + ": " + valueString(e.Value) + "}"
}

// GreaterOrEqual matches values that are greater than or equal to a specified
// value.
type GreaterOrEqual struct {
	Field string
	Value Value
}

func (e *GreaterOrEqual) field() string { return e.Field }

// Match implements Expression interface.
func (e *GreaterOrEqual) Match(payload map[string]interface{}) bool {
	c, ok := compareValues(getField(payload, e.Field), e.Value)
	return ok && c >= 0
}

// Validate implements Expression interface.
func (e *GreaterOrEqual) Validate(s schema.Schema) (err error) {
	e.Value, err = validateValue(e.Field, e.Value, s)
	return err
}

// String implements Expression interface.
func (e *GreaterOrEqual) String() string {
	return quoteField(e.Field) + ": {" + opGreaterOrEqual + ": " + valueString(e.Value) + "}"
}

// LowerThan matches values that are less than a specified value.
type LowerThan struct {
	Field string
	Value Value
}

func (e *LowerThan) field() string { return e.Field }

// Match implements Expression interface.
func (e *LowerThan) Match(payload map[string]interface{}) bool {
	c, ok := compareValues(getField(payload, e.Field), e.Value)
	return ok && c < 0
}

// Validate implements Expression interface.
func (e *LowerThan) Validate(s schema.Schema) (err error) {
	e.Value, err = validateValue(e.Field, e.Value, s)
	return err
}

// String implements Expression interface.
func (e *LowerThan) String() string {
	return quoteField(e.Field) + ": {" + opLowerThan + ": " + valueString(e.Value) + "}"
}

// LowerOrEqual matches values that are less than or equal to a specified
// value.
type LowerOrEqual struct {
	Field string
	Value Value
}

func (e *LowerOrEqual) field() string { return e.Field }

// Match implements Expression interface.
func (e *LowerOrEqual) Match(payload map[string]interface{}) bool {
	c, ok := compareValues(getField(payload, e.Field), e.Value)
	return ok && c <= 0
}

// Validate implements Expression interface.
func (e *LowerOrEqual) Validate(s schema.Schema) (err error) {
	e.Value, err = validateValue(e.Field, e.Value, s)
	return err
}

// String implements Expression interface.
func (e *LowerOrEqual) String() string {
	return quoteField(e.Field) + ": {" + opLowerOrEqual + ": " + valueString(e.Value) + "}"
}

// Like matches string values against a SQL LIKE pattern where % matches any
// sequence of characters and _ matches a single character. Matching is case
// sensitive.
type Like struct {
	Field   string
	Pattern string
	re      *regexp.Regexp
}

func (e *Like) field() string { return e.Field }

// Match implements Expression interface.
func (e *Like) Match(payload map[string]interface{}) bool {
	s, ok := getField(payload, e.Field).(string)
	if !ok {
		return false
	}
	if e.re == nil {
		e.re = likeRegexp(e.Pattern)
	}
	return e.re.MatchString(s)
}

// Validate implements Expression interface.
func (e *Like) Validate(s schema.Schema) error {
	_, err := getSchemaField(e.Field, s)
	return err
}

// String implements Expression interface.
func (e *Like) String() string {
	return quoteField(e.Field) + ": {" + opLike + ": " + valueString(e.Pattern) + "}"
}

// likeRegexp translates a LIKE pattern into an anchored regexp.
func likeRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile("(?s)" + b.String())
}
