// Copyright Tales Pardini, 2026. All rights reserved.

package refine

import "strings"

// boolQuery is a minimally structured view of a PubMed query: a
// top-level AND of clauses, where each clause is either a parenthesized
// OR-group of terms or an opaque fragment kept verbatim. The rule
// rewriter mutates the tree instead of doing string surgery on the raw
// query; when a query does not parse cleanly the rules fall back to
// appending AND clauses to the raw string.
type boolQuery struct {
	clauses []boolClause
}

// boolClause is one AND-level part of the query.
type boolClause struct {
	// terms holds the OR'd members when the clause was a parenthesized
	// group; otherwise it is nil and raw carries the fragment.
	terms []string
	raw   string
}

// grouped reports whether the clause is a mutable OR-group.
func (c boolClause) grouped() bool { return c.terms != nil }

// parseQuery splits a query into top-level AND clauses, respecting
// parentheses and double quotes. It reports ok=false for unbalanced
// input, in which case callers must not trust the tree.
func parseQuery(query string) (boolQuery, bool) {
	parts, ok := splitTopLevel(query, " AND ")
	if !ok {
		return boolQuery{}, false
	}

	var q boolQuery
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "(") && strings.HasSuffix(part, ")") {
			inner := part[1 : len(part)-1]
			members, innerOK := splitTopLevel(inner, " OR ")
			if innerOK {
				terms := make([]string, 0, len(members))
				for _, m := range members {
					if m = strings.TrimSpace(m); m != "" {
						terms = append(terms, m)
					}
				}
				if len(terms) > 0 {
					q.clauses = append(q.clauses, boolClause{terms: terms})
					continue
				}
			}
		}
		q.clauses = append(q.clauses, boolClause{raw: part})
	}

	return q, len(q.clauses) > 0
}

// String renders the tree back into PubMed query syntax.
func (q boolQuery) String() string {
	parts := make([]string, 0, len(q.clauses))
	for _, c := range q.clauses {
		if c.grouped() {
			parts = append(parts, "("+strings.Join(c.terms, " OR ")+")")
		} else {
			parts = append(parts, c.raw)
		}
	}
	return strings.Join(parts, " AND ")
}

// contains reports whether needle already appears anywhere in the
// rendered query, case-insensitively.
func (q boolQuery) contains(needle string) bool {
	return strings.Contains(strings.ToLower(q.String()), strings.ToLower(needle))
}

// orIntoGroups ORs up to perGroup of the given terms into every existing
// OR-group, skipping terms a group already mentions. It reports whether
// anything changed.
func (q *boolQuery) orIntoGroups(terms []string, perGroup int) bool {
	changed := false
	for i := range q.clauses {
		if !q.clauses[i].grouped() {
			continue
		}
		group := strings.ToLower(strings.Join(q.clauses[i].terms, " "))
		added := 0
		for _, term := range terms {
			if added >= perGroup {
				break
			}
			if strings.Contains(group, strings.ToLower(term)) {
				continue
			}
			q.clauses[i].terms = append(q.clauses[i].terms, quoteTiab(term))
			added++
			changed = true
		}
	}
	return changed
}

// andGroup appends a new parenthesized OR-group clause.
func (q *boolQuery) andGroup(terms []string) {
	if len(terms) == 0 {
		return
	}
	q.clauses = append(q.clauses, boolClause{terms: terms})
}

// quoteTiab renders a mined term as a quoted title/abstract-restricted
// query term.
func quoteTiab(term string) string {
	return `"` + term + `"[tiab]`
}

// splitTopLevel splits s on sep wherever the separator occurs at zero
// parenthesis depth outside double quotes. It reports ok=false when
// parentheses or quotes are unbalanced.
func splitTopLevel(s, sep string) ([]string, bool) {
	var parts []string
	depth := 0
	inQuote := false
	start := 0

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if !inQuote {
				depth--
				if depth < 0 {
					return nil, false
				}
			}
		}
		if depth == 0 && !inQuote && strings.HasPrefix(s[i:], sep) {
			parts = append(parts, s[start:i])
			i += len(sep) - 1
			start = i + 1
		}
	}

	if depth != 0 || inQuote {
		return nil, false
	}
	parts = append(parts, s[start:])
	return parts, true
}
