package inference

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"
)

func TestEndpointURLs(t *testing.T) {
	ep := Endpoint{Address: "10.0.0.1", ModelName: "aix-explainer"}

	u, err := ep.PredictURL()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1/v1/models/aix-explainer:predict", u)

	u, err = ep.ExplainURL()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1/v1/models/aix-explainer:explain", u)

	ep.Protocol = ProtocolV2
	ep.Address = "https://gateway:8443/"
	u, err = ep.PredictURL()
	require.NoError(t, err)
	assert.Equal(t, "https://gateway:8443/v2/models/aix-explainer/infer", u)

	_, err = ep.ExplainURL()
	assert.Error(t, err)

	ep.Protocol = "v3"
	_, err = ep.PredictURL()
	assert.Error(t, err)
}

func TestPredictSendsHostAndPayload(t *testing.T) {
	const payload = `{"instances": [[1, 2, 3]]}`
	const answer = `{"predictions": [[0.0, 0.0, 1.0]]}`

	var gotHost, gotPath, gotBody, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(answer))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	ep := Endpoint{Address: srv.URL, Host: "aix-explainer.kserve-ci-test.example.com", ModelName: "aix-explainer"}

	res, err := c.Predict(context.Background(), ep, []byte(payload))
	require.NoError(t, err)

	assert.Equal(t, "aix-explainer.kserve-ci-test.example.com", gotHost)
	assert.Equal(t, "/v1/models/aix-explainer:predict", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, payload, gotBody)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, answer, string(res.Body))
}

func TestExplainPassThrough(t *testing.T) {
	defer gock.Off()

	hc := &http.Client{}
	gock.InterceptClient(hc)
	defer gock.RestoreClient(hc)

	body := `{"explanations": {"masks": [[[1, 0], [1, 1]]], "top_labels": [2]}}`
	gock.New("http://10.0.0.1").
		Post("/v1/models/aix-explainer:explain").
		Reply(200).
		BodyString(body)

	res, err := NewClient(hc).Explain(context.Background(), Endpoint{Address: "10.0.0.1", ModelName: "aix-explainer"}, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, body, string(res.Body))
	assert.True(t, gock.IsDone())
}

func TestNon2xxIsStatusError(t *testing.T) {
	defer gock.Off()

	hc := &http.Client{}
	gock.InterceptClient(hc)
	defer gock.RestoreClient(hc)

	gock.New("http://10.0.0.1").
		Post("/v1/models/m:predict").
		Reply(503).
		BodyString("no healthy upstream")

	_, err := NewClient(hc).Predict(context.Background(), Endpoint{Address: "10.0.0.1", ModelName: "m"}, []byte(`{}`))
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 503, statusErr.Code)
	assert.Equal(t, "no healthy upstream", statusErr.Body)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewClient(nil).Predict(context.Background(), Endpoint{Address: addr, ModelName: "m"}, []byte(`{}`))
	assert.Error(t, err)
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "http://a:80", NormalizeURL("a:80"))
	assert.Equal(t, "https://a", NormalizeURL("https://a"))
	assert.Equal(t, "http://a", NormalizeURL("http://a"))
}
