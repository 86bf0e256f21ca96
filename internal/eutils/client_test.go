package eutils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const esearchResponseXML = `<?xml version="1.0" encoding="UTF-8" ?>
<eSearchResult>
	<Count>3</Count>
	<RetMax>3</RetMax>
	<RetStart>0</RetStart>
	<IdList>
		<Id>111</Id>
		<Id>222</Id>
		<Id>333</Id>
	</IdList>
</eSearchResult>`

const esearchNotFoundXML = `<?xml version="1.0" encoding="UTF-8" ?>
<eSearchResult>
	<Count>0</Count>
	<IdList></IdList>
	<ErrorList>
		<PhraseNotFound>zxqy nonsense</PhraseNotFound>
	</ErrorList>
</eSearchResult>`

const efetchResponseXML = `<?xml version="1.0" encoding="UTF-8" ?>
<PubmedArticleSet>
	<PubmedArticle>
		<PubmedData><ArticleIdList>
			<ArticleId IdType="pubmed">111</ArticleId>
		</ArticleIdList></PubmedData>
	</PubmedArticle>
</PubmedArticleSet>`

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{
		BaseURL:   srv.URL,
		RateLimit: 1000,
		BurstSize: 1000,
	}
	httpClient := NewHTTPClient(HTTPClientConfig{
		RateLimit:  1000,
		BurstSize:  1000,
		RetryDelay: time.Millisecond,
	})
	return NewWithHTTPClient(cfg, httpClient, zerolog.Nop(), nil), srv
}

func TestSearch(t *testing.T) {
	t.Run("returns IDs and sends query parameters", func(t *testing.T) {
		var gotQuery map[string]string
		client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/esearch.fcgi", r.URL.Path)
			gotQuery = map[string]string{
				"db":      r.URL.Query().Get("db"),
				"term":    r.URL.Query().Get("term"),
				"retmax":  r.URL.Query().Get("retmax"),
				"retmode": r.URL.Query().Get("retmode"),
			}
			w.Write([]byte(esearchResponseXML))
		}))

		ids, err := client.Search(context.Background(), DBPubMed, SearchParams{
			Query:      "cancer genomics",
			MaxResults: 50,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"111", "222", "333"}, ids)
		assert.Equal(t, "pubmed", gotQuery["db"])
		assert.Equal(t, "cancer genomics", gotQuery["term"])
		assert.Equal(t, "50", gotQuery["retmax"])
		assert.Equal(t, "xml", gotQuery["retmode"])
	})

	t.Run("phrase not found yields empty result", func(t *testing.T) {
		client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(esearchNotFoundXML))
		}))

		ids, err := client.Search(context.Background(), DBPubMed, SearchParams{Query: "zxqy nonsense"})
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("caps retmax at the API limit", func(t *testing.T) {
		var retmax string
		client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			retmax = r.URL.Query().Get("retmax")
			w.Write([]byte(esearchResponseXML))
		}))

		_, err := client.Search(context.Background(), DBPMC, SearchParams{Query: "q", MaxResults: 999999})
		require.NoError(t, err)
		assert.Equal(t, "10000", retmax)
	})

	t.Run("date filters", func(t *testing.T) {
		var q map[string]string
		client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q = map[string]string{
				"datetype": r.URL.Query().Get("datetype"),
				"mindate":  r.URL.Query().Get("mindate"),
				"maxdate":  r.URL.Query().Get("maxdate"),
			}
			w.Write([]byte(esearchResponseXML))
		}))

		from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC)
		_, err := client.Search(context.Background(), DBPubMed, SearchParams{
			Query:    "q",
			DateFrom: &from,
			DateTo:   &to,
		})
		require.NoError(t, err)
		assert.Equal(t, "pdat", q["datetype"])
		assert.Equal(t, "2020/01/01", q["mindate"])
		assert.Equal(t, "2021/06/30", q["maxdate"])
	})

	t.Run("server error", func(t *testing.T) {
		client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))

		_, err := client.Search(context.Background(), DBPubMed, SearchParams{Query: "q"})
		assert.Error(t, err)
	})
}

func TestFetch(t *testing.T) {
	t.Run("splits IDs into batches", func(t *testing.T) {
		var idParams []string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/efetch.fcgi", r.URL.Path)
			idParams = append(idParams, r.URL.Query().Get("id"))
			w.Write([]byte(efetchResponseXML))
		})
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)

		cfg := Config{
			BaseURL:        srv.URL,
			FetchBatchSize: 3,
		}
		httpClient := NewHTTPClient(HTTPClientConfig{RateLimit: 1000, BurstSize: 1000})
		client := NewWithHTTPClient(cfg, httpClient, zerolog.Nop(), nil)

		docs, err := client.Fetch(context.Background(), DBPubMed, []string{"1", "2", "3", "4", "5", "6", "7"})
		require.NoError(t, err)

		require.Len(t, docs, 3)
		assert.Equal(t, []string{"1,2,3", "4,5,6", "7"}, idParams)
		assert.Equal(t, "PubmedArticleSet", docs[0].Tag())
	})

	t.Run("no IDs means no requests", func(t *testing.T) {
		client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("unexpected request")
		}))

		docs, err := client.Fetch(context.Background(), DBPubMed, nil)
		require.NoError(t, err)
		assert.Nil(t, docs)
	})

	t.Run("malformed XML", func(t *testing.T) {
		client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<broken"))
		}))

		_, err := client.Fetch(context.Background(), DBPMC, []string{"1"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "parse")
	})
}

func TestSearchAndFetch(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			w.Write([]byte(esearchResponseXML))
		case "/efetch.fcgi":
			assert.Equal(t, "111,222,333", r.URL.Query().Get("id"))
			w.Write([]byte(efetchResponseXML))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	docs, err := client.SearchAndFetch(context.Background(), DBPubMed, SearchParams{Query: "testing"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Len(t, docs[0].FindAll(".//PubmedArticle"), 1)
}

func TestAPIKeyForwarded(t *testing.T) {
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.URL.Query().Get("api_key")
		w.Write([]byte(esearchResponseXML))
	}))
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL, APIKey: "secret-key"}
	httpClient := NewHTTPClient(HTTPClientConfig{RateLimit: 1000, BurstSize: 1000})
	client := NewWithHTTPClient(cfg, httpClient, zerolog.Nop(), nil)

	_, err := client.Search(context.Background(), DBPubMed, SearchParams{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, "secret-key", apiKey)
}

func TestSearchTermEncoding(t *testing.T) {
	var rawQuery string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		w.Write([]byte(esearchResponseXML))
	}))

	_, err := client.Search(context.Background(), DBPubMed, SearchParams{
		Query: `"breast cancer"[Title] AND 2020[PDAT]`,
	})
	require.NoError(t, err)
	assert.False(t, strings.Contains(rawQuery, `"`), "query must be URL-encoded")
}
