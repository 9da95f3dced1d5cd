package elasticsearch

import (
	"fmt"
	"reflect"
	"sort"

	"varsearch/api/models"
	"varsearch/api/models/constants"
	genotypeState "varsearch/api/models/constants/genotype-state"
	"varsearch/api/models/constants/population"
	s "varsearch/api/models/constants/sort"
	"varsearch/api/models/indexes"
	"varsearch/api/utils"
)

type PredicateKind int

const (
	KindTerm PredicateKind = iota
	KindTerms
	KindRange
	KindExists
	KindAnd
	KindOr
	KindNot
)

func (k PredicateKind) String() string {
	switch k {
	case KindTerm:
		return "term"
	case KindTerms:
		return "terms"
	case KindRange:
		return "range"
	case KindExists:
		return "exists"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindNot:
		return "not"
	default:
		return fmt.Sprintf("PredicateKind(%d)", int(k))
	}
}

// Bounds is an inclusive numeric range; nil ends are open.
type Bounds struct {
	Gte *float64
	Lte *float64
}

// Predicate is one node of a compiled query. Which fields are meaningful
// depends on Kind: Term uses Value, Terms uses Values, Range uses Bounds,
// Exists only Field, and the boolean kinds use Children.
type Predicate struct {
	Kind     PredicateKind
	Field    string
	Value    interface{}
	Values   []interface{}
	Bounds   Bounds
	Children []Predicate
}

func Term(field string, value interface{}) Predicate {
	return Predicate{Kind: KindTerm, Field: field, Value: value}
}

func Terms(field string, values []interface{}) Predicate {
	return Predicate{Kind: KindTerms, Field: field, Values: values}
}

func Range(field string, gte *float64, lte *float64) Predicate {
	return Predicate{Kind: KindRange, Field: field, Bounds: Bounds{Gte: gte, Lte: lte}}
}

func Exists(field string) Predicate {
	return Predicate{Kind: KindExists, Field: field}
}

func And(children ...Predicate) Predicate {
	return Predicate{Kind: KindAnd, Children: children}
}

func Or(children ...Predicate) Predicate {
	return Predicate{Kind: KindOr, Children: children}
}

func Not(child Predicate) Predicate {
	return Predicate{Kind: KindNot, Children: []Predicate{child}}
}

// Query is a conjunction of predicates sorted by a single field.
type Query struct {
	Filters   []Predicate
	SortField string
	SortOrder constants.SortDirection
}

func float(v float64) *float64 { return &v }

func stringsToValues(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// CompileVariantQuery translates the filters into a query over the variant
// index. It fails on an unknown genotype token or population.
func CompileVariantQuery(vf *models.VariantFilter, gf models.GenotypeFilter) (Query, error) {
	query := Query{
		SortField: indexes.FieldXpos,
		SortOrder: s.Ascending,
	}

	if len(gf) > 0 {
		// stable clause order for identical filters
		individualIds := make([]string, 0, len(gf))
		for id := range gf {
			individualIds = append(individualIds, id)
		}
		sort.Strings(individualIds)

		for _, individualId := range individualIds {
			p, err := genotypePredicate(individualId, gf[individualId])
			if err != nil {
				return Query{}, err
			}
			query.Filters = append(query.Filters, p)
		}
	}

	if vf == nil {
		return query, nil
	}

	if len(vf.Locations) > 0 {
		ranges := make([]Predicate, 0, len(vf.Locations))
		for _, loc := range vf.Locations {
			ranges = append(ranges, Range(indexes.FieldXpos, float(float64(loc.XStart)), float(float64(loc.XEnd))))
		}
		query.Filters = append(query.Filters, Or(ranges...))
	}

	if len(vf.Consequences) > 0 {
		consequences := Terms(indexes.FieldTranscriptConsequence, stringsToValues(vf.Consequences))
		if utils.StringInSlice(indexes.NoConsequenceTerm, vf.Consequences) {
			// VEP leaves many intergenic variants without any annotation
			consequences = Or(consequences, Not(Exists(indexes.FieldTranscriptConsequence)))
		}
		query.Filters = append(query.Filters, consequences)
	}

	if len(vf.Genes) > 0 {
		genes := Terms(indexes.FieldGeneIds, stringsToValues(vf.Genes))
		if vf.ExcludeGenes {
			genes = Not(genes)
		}
		query.Filters = append(query.Filters, genes)
	}

	for _, refFreq := range vf.RefFreqs {
		field, err := population.FrequencyField(refFreq.Population)
		if err != nil {
			return Query{}, err
		}
		// an unobserved population is not evidence of a common variant
		query.Filters = append(query.Filters,
			Or(Range(field, nil, float(refFreq.MaxFreq)), Not(Exists(field))))
	}

	return query, nil
}

func genotypePredicate(individualId string, state constants.GenotypeState) (Predicate, error) {
	numAlt, err := genotypeState.PredicateFor(state)
	if err != nil {
		return Predicate{}, fmt.Errorf("genotype filter for %s: %w", individualId, err)
	}

	field := utils.EncodeFieldName(individualId) + indexes.SuffixNumAlt
	switch numAlt.Shape {
	case genotypeState.Exact:
		return Term(field, numAlt.Value), nil
	case genotypeState.AtLeast:
		return Range(field, float(float64(numAlt.Value)), nil), nil
	default:
		terms := make([]Predicate, 0, len(numAlt.Values))
		for _, v := range numAlt.Values {
			terms = append(terms, Term(field, v))
		}
		return Or(terms...), nil
	}
}

// WithFilter returns a copy of the query with one more conjunct.
func (q Query) WithFilter(p Predicate) Query {
	filters := make([]Predicate, 0, len(q.Filters)+1)
	filters = append(filters, q.Filters...)
	q.Filters = append(filters, p)
	return q
}

// Source renders the query body in the Elasticsearch query DSL.
func (q Query) Source() map[string]interface{} {
	filters := make([]map[string]interface{}, 0, len(q.Filters))
	for _, p := range q.Filters {
		filters = append(filters, p.Source())
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filters,
			},
		},
	}

	sortOrder := q.SortOrder
	if sortOrder == s.Undefined {
		sortOrder = s.Ascending
	}
	if q.SortField != "" {
		body["sort"] = []map[string]interface{}{{
			q.SortField: map[string]interface{}{
				"order": string(sortOrder),
			},
		}}
	}
	return body
}

func (p Predicate) Source() map[string]interface{} {
	children := func() []map[string]interface{} {
		out := make([]map[string]interface{}, 0, len(p.Children))
		for _, c := range p.Children {
			out = append(out, c.Source())
		}
		return out
	}

	switch p.Kind {
	case KindTerm:
		return map[string]interface{}{
			"term": map[string]interface{}{p.Field: p.Value},
		}
	case KindTerms:
		return map[string]interface{}{
			"terms": map[string]interface{}{p.Field: p.Values},
		}
	case KindRange:
		bounds := map[string]interface{}{}
		if p.Bounds.Gte != nil {
			bounds["gte"] = *p.Bounds.Gte
		}
		if p.Bounds.Lte != nil {
			bounds["lte"] = *p.Bounds.Lte
		}
		return map[string]interface{}{
			"range": map[string]interface{}{p.Field: bounds},
		}
	case KindExists:
		return map[string]interface{}{
			"exists": map[string]interface{}{"field": p.Field},
		}
	case KindAnd:
		return map[string]interface{}{
			"bool": map[string]interface{}{"filter": children()},
		}
	case KindOr:
		return map[string]interface{}{
			"bool": map[string]interface{}{
				"should":               children(),
				"minimum_should_match": 1,
			},
		}
	case KindNot:
		return map[string]interface{}{
			"bool": map[string]interface{}{"must_not": children()},
		}
	}
	return map[string]interface{}{}
}

// Matches evaluates the query against a document _source the way
// Elasticsearch filters would.
func (q Query) Matches(doc map[string]interface{}) bool {
	for _, p := range q.Filters {
		if !p.Matches(doc) {
			return false
		}
	}
	return true
}

func (p Predicate) Matches(doc map[string]interface{}) bool {
	switch p.Kind {
	case KindTerm:
		for _, v := range fieldValues(doc, p.Field) {
			if valuesEqual(v, p.Value) {
				return true
			}
		}
		return false
	case KindTerms:
		for _, v := range fieldValues(doc, p.Field) {
			for _, want := range p.Values {
				if valuesEqual(v, want) {
					return true
				}
			}
		}
		return false
	case KindRange:
		for _, v := range fieldValues(doc, p.Field) {
			n, ok := toFloat(v)
			if !ok {
				continue
			}
			if p.Bounds.Gte != nil && n < *p.Bounds.Gte {
				continue
			}
			if p.Bounds.Lte != nil && n > *p.Bounds.Lte {
				continue
			}
			return true
		}
		return false
	case KindExists:
		return len(fieldValues(doc, p.Field)) > 0
	case KindAnd:
		for _, c := range p.Children {
			if !c.Matches(doc) {
				return false
			}
		}
		return true
	case KindOr:
		for _, c := range p.Children {
			if c.Matches(doc) {
				return true
			}
		}
		return false
	case KindNot:
		for _, c := range p.Children {
			if c.Matches(doc) {
				return false
			}
		}
		return true
	}
	return false
}

// fieldValues flattens a field to its indexed values; null and empty
// arrays index nothing.
func fieldValues(doc map[string]interface{}, field string) []interface{} {
	raw, ok := doc[field]
	if !ok || raw == nil {
		return nil
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]interface{}, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if e := rv.Index(i).Interface(); e != nil {
				out = append(out, e)
			}
		}
		return out
	}
	return []interface{}{raw}
}

func valuesEqual(a interface{}, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
