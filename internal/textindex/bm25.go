package textindex

import "math"

// BM25 k1/b use the standard defaults.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// fieldPostings holds one field's inverted index: term -> postings list
// (sorted ascending by docIdx), plus per-document token counts needed for
// the BM25 length-normalization term.
type fieldPostings struct {
	postings  map[string][]posting
	docTokens map[int]int // docIdx -> token count for this field
	totalLen  int
}

type posting struct {
	docIdx int
	freq   int
}

func newFieldPostings() *fieldPostings {
	return &fieldPostings{postings: map[string][]posting{}, docTokens: map[int]int{}}
}

func (f *fieldPostings) add(docIdx int, terms []string) {
	if len(terms) == 0 {
		return
	}
	counts := map[string]int{}
	for _, t := range terms {
		counts[t]++
	}
	for term, freq := range counts {
		f.postings[term] = append(f.postings[term], posting{docIdx: docIdx, freq: freq})
	}
	f.docTokens[docIdx] = len(terms)
	f.totalLen += len(terms)
}

func (f *fieldPostings) avgDocLen() float64 {
	if len(f.docTokens) == 0 {
		return 0
	}
	return float64(f.totalLen) / float64(len(f.docTokens))
}

// score returns, for each docIdx containing at least one of the query
// terms, its BM25 score against this field.
func (f *fieldPostings) score(queryTerms []string, docCount int) map[int]float64 {
	scores := map[int]float64{}
	if docCount == 0 {
		return scores
	}
	avgLen := f.avgDocLen()
	for _, term := range queryTerms {
		plist, ok := f.postings[term]
		if !ok {
			continue
		}
		idf := idf(docCount, len(plist))
		for _, p := range plist {
			dl := float64(f.docTokens[p.docIdx])
			tf := float64(p.freq)
			denom := tf + bm25K1*(1-bm25B+bm25B*dl/maxFloat(avgLen, 1))
			scores[p.docIdx] += idf * (tf * (bm25K1 + 1)) / denom
		}
	}
	return scores
}

// idf is the standard BM25 idf, ln(1 + (N-n+0.5)/(n+0.5)), clamped at
// zero, matching the common implementation used by mainstream full-text
// engines.
func idf(docCount, docFreq int) float64 {
	v := math.Log(1 + (float64(docCount)-float64(docFreq)+0.5)/(float64(docFreq)+0.5))
	if v < 0 {
		return 0
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
