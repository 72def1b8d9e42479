package classifier

import (
	"context"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/codegraph-hq/codegraph/internal/extractor"
)

const (
	defaultBatchSize = 20
	cacheSize        = 4096

	// summary caps: the classifier sees at most this many imports,
	// functions and classes per file
	maxSummaryItems = 10
)

// Classifier batches files to a Client and fills gaps with path heuristics.
// A failed batch never fails the run; every file always gets a decoration.
type Classifier struct {
	client    Client
	cache     *lru.Cache[string, Decoration]
	batchSize int
}

// New creates a classifier. client may be nil, in which case everything is
// classified heuristically.
func New(client Client) *Classifier {
	cache, _ := lru.New[string, Decoration](cacheSize)
	return &Classifier{
		client:    client,
		cache:     cache,
		batchSize: defaultBatchSize,
	}
}

// Decorate labels every file and returns decorations keyed by relative path
func (c *Classifier) Decorate(ctx context.Context, rootName string, files []*extractor.FileFacts) map[string]Decoration {
	out := make(map[string]Decoration, len(files))

	var pending []*extractor.FileFacts
	for _, f := range files {
		if dec, ok := c.cache.Get(cacheKey(f)); ok {
			out[f.Source.RelPath] = dec
			continue
		}
		pending = append(pending, f)
	}

	if c.client != nil && c.client.Available() {
		for start := 0; start < len(pending); start += c.batchSize {
			end := start + c.batchSize
			if end > len(pending) {
				end = len(pending)
			}
			c.classifyBatch(ctx, rootName, pending[start:end], out)
		}
	}

	// heuristic fallback covers whatever the client skipped or failed
	for _, f := range pending {
		if _, ok := out[f.Source.RelPath]; ok {
			continue
		}
		dec := HeuristicDecoration(f.Source.RelPath, string(f.Source.Language))
		out[f.Source.RelPath] = dec
		c.cache.Add(cacheKey(f), dec)
	}

	return out
}

func (c *Classifier) classifyBatch(ctx context.Context, rootName string, batch []*extractor.FileFacts, out map[string]Decoration) {
	summaries := make([]FileSummary, 0, len(batch))
	for _, f := range batch {
		summaries = append(summaries, summarize(f))
	}

	labels, err := c.client.ClassifyBatch(ctx, rootName, summaries)
	if err != nil {
		log.Warn().Err(err).Int("batch_size", len(batch)).
			Msg("classifier batch failed, falling back to heuristics")
		return
	}

	for _, f := range batch {
		if dec, ok := labels[f.Source.RelPath]; ok {
			out[f.Source.RelPath] = dec
			c.cache.Add(cacheKey(f), dec)
		}
	}
}

func summarize(f *extractor.FileFacts) FileSummary {
	s := FileSummary{
		Path:     f.Source.RelPath,
		Language: string(f.Source.Language),
		Lines:    f.Source.Lines,
	}
	for _, imp := range f.Imports {
		if len(s.Imports) >= maxSummaryItems {
			break
		}
		s.Imports = append(s.Imports, imp.Specifier)
	}
	for _, fn := range f.Functions {
		if len(s.Functions) >= maxSummaryItems {
			break
		}
		s.Functions = append(s.Functions, fn.QualifiedName)
	}
	for _, cls := range f.Classes {
		if len(s.Classes) >= maxSummaryItems {
			break
		}
		s.Classes = append(s.Classes, cls.Name)
	}
	return s
}

// cacheKey covers the fields that change a classification. Path plus line
// count is enough to invalidate on edit without hashing content.
func cacheKey(f *extractor.FileFacts) string {
	return f.Source.RelPath + "\x00" + string(f.Source.Language) + "\x00" + strconv.Itoa(f.Source.Lines)
}
