// Copyright Tales Pardini, 2026. All rights reserved.

package pubmed

import (
	"strings"

	"github.com/pardinithales/pubmed-agent/pkg/types"
)

// E-utilities XML structures. Only the fields the agent reads are mapped.

// eSearchResult is the esearch.fcgi response envelope.
type eSearchResult struct {
	Count int      `xml:"Count"`
	IDs   []string `xml:"IdList>Id"`
}

// eSummaryResult is the esummary.fcgi response envelope.
type eSummaryResult struct {
	DocSums []docSum `xml:"DocSum"`
}

// docSum is one record summary. esummary encodes fields as <Item>
// elements distinguished by their Name attribute.
type docSum struct {
	ID    string       `xml:"Id"`
	Items []docSumItem `xml:"Item"`
}

type docSumItem struct {
	Name  string       `xml:"Name,attr"`
	Value string       `xml:",chardata"`
	Items []docSumItem `xml:"Item"`
}

// toSummary extracts title, publication types, and year from the
// DocSum's Item list.
func (d docSum) toSummary() types.ArticleSummary {
	summary := types.ArticleSummary{PMID: d.ID}

	for _, item := range d.Items {
		switch item.Name {
		case "Title":
			summary.Title = strings.TrimSpace(item.Value)
		case "PubTypeList":
			for _, sub := range item.Items {
				if v := strings.TrimSpace(sub.Value); v != "" {
					summary.PublicationTypes = append(summary.PublicationTypes, v)
				}
			}
		case "PubDate":
			// PubDate looks like "2023 Mar 15"; only the year is kept.
			fields := strings.Fields(item.Value)
			if len(fields) > 0 {
				summary.PublicationYear = fields[0]
			}
		}
	}

	if len(summary.PublicationTypes) == 0 {
		summary.PublicationTypes = []string{"Unknown"}
	}
	if summary.PublicationYear == "" {
		summary.PublicationYear = "Unknown"
	}
	return summary
}

// pubmedArticleSet is the efetch.fcgi response envelope for
// rettype=abstract, retmode=xml.
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID  string `xml:"MedlineCitation>PMID"`
	Title string `xml:"MedlineCitation>Article>ArticleTitle"`
	// AbstractTexts collects the labeled abstract sections
	// (Background, Methods, ...); they are joined for term mining.
	AbstractTexts []string `xml:"MedlineCitation>Article>Abstract>AbstractText"`
}
