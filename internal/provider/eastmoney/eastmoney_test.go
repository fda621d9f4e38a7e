package eastmoney_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"stockticker/internal/provider"
	"stockticker/internal/provider/eastmoney"
	"stockticker/internal/quote"
)

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestSecID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		symbol string
		want   string
		ok     bool
	}{
		{"600000", "1.600000", true},
		{"688001", "1.688001", true},
		{"000001", "0.000001", true},
		{"300750", "0.300750", true},
		{"880001", "", false},
		{"600", "", false},
	}
	for _, tc := range cases {
		got, ok := eastmoney.SecID(tc.symbol)
		require.Equal(t, tc.ok, ok, tc.symbol)
		require.Equal(t, tc.want, got, tc.symbol)
	}
}

func TestResolve_ReadsF58(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			require.Equal(t, "1.600000", q.Get("secid"))
			require.Equal(t, "f58,f59", q.Get("fields"))
			return jsonResponse(`{"data":{"f58":"浦发银行","f59":2}}`), nil
		}).
		Times(1)

	client := eastmoney.New(eastmoney.Config{}, eastmoney.WithHTTPClient(httpClient))
	name, err := client.Resolve(context.Background(), "600000")
	require.NoError(t, err)
	require.Equal(t, "浦发银行", name)
}

func TestResolve_EmptyF58IsUnresolved(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(`{"data":null}`), nil).
		Times(1)

	client := eastmoney.New(eastmoney.Config{}, eastmoney.WithHTTPClient(httpClient))
	_, err := client.Resolve(context.Background(), "000002")
	require.Error(t, err)
	require.Equal(t, quote.ErrNameUnresolved, provider.KindOf(err))
}

func TestResolve_UnsupportedSymbolSkipsRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	// no Do expectation: prefix 8 has no push2 market mapping

	client := eastmoney.New(eastmoney.Config{}, eastmoney.WithHTTPClient(httpClient))
	_, err := client.Resolve(context.Background(), "830001")
	require.Error(t, err)
	require.Equal(t, quote.ErrNameUnresolved, provider.KindOf(err))
}

func TestSearchCode_SixDigitCodesOnly(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "贵州茅台", req.URL.Query().Get("input"))
			return jsonResponse(`{"QuotationCodeTable":{"Data":[
				{"Code":"BK0477","Name":"白酒"},
				{"Code":"600519","Name":"贵州茅台"}
			]}}`), nil
		}).
		Times(1)

	client := eastmoney.New(eastmoney.Config{}, eastmoney.WithHTTPClient(httpClient))
	code, err := client.SearchCode(context.Background(), "贵州茅台")
	require.NoError(t, err)
	require.Equal(t, "600519", code)
}

func TestWithHeader(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "bar", req.Header.Get("foo"))
			return jsonResponse(`{"data":{"f58":"平安银行"}}`), nil
		}).
		Times(1)

	client := eastmoney.New(eastmoney.Config{},
		eastmoney.WithHTTPClient(httpClient),
		eastmoney.WithHeader(http.Header{"foo": []string{"bar"}}))
	_, err := client.Resolve(context.Background(), "000001")
	require.NoError(t, err)
}

func TestGet_HTTPStatusError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(&http.Response{StatusCode: http.StatusForbidden, Body: io.NopCloser(bytes.NewReader(nil))}, nil).
		Times(1)

	client := eastmoney.New(eastmoney.Config{}, eastmoney.WithHTTPClient(httpClient))
	_, err := client.Resolve(context.Background(), "600000")
	require.Error(t, err)
	require.Equal(t, quote.ErrHTTPStatus, provider.KindOf(err))
}
