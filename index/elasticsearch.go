package index

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
)

const documentMapping = `{
	"settings": {
		"analysis": {
			"analyzer": {
				"default": {"type": "standard"}
			}
		}
	},
	"mappings": {
		"properties": {
			"docid": {"type": "keyword"},
			"title": {"type": "text"},
			"text": {"type": "text"}
		}
	}
}`

const qrelsMapping = `{
	"mappings": {
		"properties": {
			"query_id": {"type": "integer"},
			"doc_id": {"type": "keyword"},
			"relevance": {"type": "integer"}
		}
	}
}`

// ElasticsearchBackend stores documents and judgments in two Elasticsearch indices and
// ranks documents with a multi_match query, i.e. BM25 over the searched fields.
type ElasticsearchBackend struct {
	client    *elastic.Client
	hosts     []string
	sniff     bool
	documents string
	qrels     string
	bulkSize  int
}

// ElasticsearchClient uses an existing client instead of connecting to the hosts.
func ElasticsearchClient(client *elastic.Client) func(*ElasticsearchBackend) {
	return func(es *ElasticsearchBackend) {
		es.client = client
		return
	}
}

// ElasticsearchHosts sets the hosts for the Elasticsearch client.
func ElasticsearchHosts(hosts ...string) func(*ElasticsearchBackend) {
	return func(es *ElasticsearchBackend) {
		if len(hosts) > 0 {
			es.hosts = hosts
		}
		return
	}
}

// ElasticsearchSniff enables cluster sniffing.
func ElasticsearchSniff(sniff bool) func(*ElasticsearchBackend) {
	return func(es *ElasticsearchBackend) {
		es.sniff = sniff
		return
	}
}

// ElasticsearchDocumentIndex sets the name of the document index.
func ElasticsearchDocumentIndex(index string) func(*ElasticsearchBackend) {
	return func(es *ElasticsearchBackend) {
		es.documents = index
		return
	}
}

// ElasticsearchQrelsIndex sets the name of the judgment index.
func ElasticsearchQrelsIndex(index string) func(*ElasticsearchBackend) {
	return func(es *ElasticsearchBackend) {
		es.qrels = index
		return
	}
}

// ElasticsearchBulkSize sets how many records are sent per bulk request.
func ElasticsearchBulkSize(size int) func(*ElasticsearchBackend) {
	return func(es *ElasticsearchBackend) {
		if size > 0 {
			es.bulkSize = size
		}
		return
	}
}

// NewElasticsearchBackend creates a backend using functional options. Without a client
// option it connects to the configured hosts, http://localhost:9200 by default.
func NewElasticsearchBackend(options ...func(*ElasticsearchBackend)) (*ElasticsearchBackend, error) {
	es := &ElasticsearchBackend{
		hosts:     []string{"http://localhost:9200"},
		documents: "sw_corpus",
		qrels:     "sw_qrels",
		bulkSize:  500,
	}
	for _, option := range options {
		option(es)
	}

	if es.client == nil {
		client, err := elastic.NewClient(elastic.SetURL(es.hosts...), elastic.SetSniff(es.sniff))
		if err != nil {
			return nil, unavailable(err)
		}
		es.client = client
	}
	return es, nil
}

// Exists reports whether the document index exists.
func (es *ElasticsearchBackend) Exists(ctx context.Context) (bool, error) {
	ok, err := es.client.IndexExists(es.documents).Do(ctx)
	if err != nil {
		return false, es.classify(err, es.documents)
	}
	return ok, nil
}

// CreateIfAbsent creates the document and judgment indices with their mappings.
func (es *ElasticsearchBackend) CreateIfAbsent(ctx context.Context) error {
	for _, idx := range []struct {
		name    string
		mapping string
	}{
		{es.documents, documentMapping},
		{es.qrels, qrelsMapping},
	} {
		ok, err := es.client.IndexExists(idx.name).Do(ctx)
		if err != nil {
			return es.classify(err, idx.name)
		}
		if ok {
			continue
		}
		_, err = es.client.CreateIndex(idx.name).BodyString(idx.mapping).Do(ctx)
		// Another writer may have created the index in the meantime.
		if err != nil && !elastic.IsStatusCode(err, 400) {
			return es.classify(err, idx.name)
		}
	}
	return nil
}

// UpsertDocuments bulk indexes documents using the docid as the Elasticsearch id.
func (es *ElasticsearchBackend) UpsertDocuments(ctx context.Context, docs []Document) (int, error) {
	requests := make([]elastic.BulkableRequest, len(docs))
	for i, doc := range docs {
		requests[i] = elastic.NewBulkIndexRequest().Id(doc.ID).Doc(doc)
	}
	return es.bulk(ctx, es.documents, requests)
}

// UpsertJudgments bulk indexes judgments using "{topic}_{docid}" as the Elasticsearch id.
func (es *ElasticsearchBackend) UpsertJudgments(ctx context.Context, judgments []Judgment) (int, error) {
	requests := make([]elastic.BulkableRequest, len(judgments))
	for i, j := range judgments {
		requests[i] = elastic.NewBulkIndexRequest().Id(judgmentID(j.Topic, j.DocID)).Doc(j)
	}
	return es.bulk(ctx, es.qrels, requests)
}

func (es *ElasticsearchBackend) bulk(ctx context.Context, index string, requests []elastic.BulkableRequest) (int, error) {
	failed := 0
	for i := 0; i < len(requests); i += es.bulkSize {
		j := i + es.bulkSize
		if j > len(requests) {
			j = len(requests)
		}
		svc := es.client.Bulk().Index(index).Refresh("wait_for").Add(requests[i:j]...)
		resp, err := svc.Do(ctx)
		if err != nil {
			return failed, es.classify(err, index)
		}
		failed += len(resp.Failed())
	}
	return failed, nil
}

// Search issues a multi_match query over fields and returns the hits in score order.
func (es *ElasticsearchBackend) Search(ctx context.Context, text string, fields []string, size int) ([]Candidate, error) {
	result, err := es.client.Search(es.documents).
		Query(elastic.NewMultiMatchQuery(text, fields...)).
		Size(size).
		Do(ctx)
	if err != nil {
		return nil, es.classify(err, es.documents)
	}

	candidates := make([]Candidate, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var doc Document
		if len(hit.Source) > 0 {
			if err := json.Unmarshal(hit.Source, &doc); err != nil {
				return nil, errors.Wrapf(err, "decode hit %s", hit.Id)
			}
		}
		if doc.ID == "" {
			doc.ID = hit.Id
		}
		var score float64
		if hit.Score != nil {
			score = *hit.Score
		}
		candidates = append(candidates, Candidate{
			ID:    doc.ID,
			Title: doc.Title,
			Text:  doc.Text,
			Score: score,
		})
	}
	return candidates, nil
}

// Relevance fetches the judgment stored for (topic, docID).
func (es *ElasticsearchBackend) Relevance(ctx context.Context, topic int64, docID string) (int64, bool, error) {
	res, err := es.client.Get().Index(es.qrels).Id(judgmentID(topic, docID)).Do(ctx)
	if elastic.IsNotFound(err) {
		// Both a missing document and a missing index answer 404.
		ok, existsErr := es.client.IndexExists(es.qrels).Do(ctx)
		if existsErr != nil {
			return 0, false, es.classify(existsErr, es.qrels)
		}
		if !ok {
			return 0, false, notFound(es.qrels)
		}
		return 0, false, nil
	}
	if err != nil {
		return 0, false, es.classify(err, es.qrels)
	}
	if !res.Found || len(res.Source) == 0 {
		return 0, false, nil
	}
	var j Judgment
	if err := json.Unmarshal(res.Source, &j); err != nil {
		return 0, false, errors.Wrapf(err, "decode judgment %s", res.Id)
	}
	return j.Relevance, true, nil
}

// Count is the number of documents in the document index.
func (es *ElasticsearchBackend) Count(ctx context.Context) (int64, error) {
	n, err := es.client.Count(es.documents).Do(ctx)
	if err != nil {
		return 0, es.classify(err, es.documents)
	}
	return n, nil
}

// classify maps client errors onto the error taxonomy.
func (es *ElasticsearchBackend) classify(err error, index string) error {
	switch {
	case elastic.IsNotFound(err):
		return notFound(index)
	case elastic.IsConnErr(err):
		return unavailable(err)
	}
	return errors.Wrapf(err, "elasticsearch %s", index)
}

func judgmentID(topic int64, docID string) string {
	return fmt.Sprintf("%d_%s", topic, docID)
}
