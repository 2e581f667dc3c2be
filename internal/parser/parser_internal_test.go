package parser

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/Houeta/recom-feed/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRoundTripper is a mock for http.RoundTripper.
type mockRoundTripper struct {
	response *http.Response
	err      error
	lastReq  *http.Request
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.lastReq = req
	return m.response, m.err
}

// =============================================================================
// Tests for parsing logic
// =============================================================================

func TestParseTableResponse(t *testing.T) {
	// Creating a "silent" logger that doesn't output anything during tests
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewParser(logger, "") // The URL is not important for this test.

	validHTML := `
	<html>
	<body>
		<table class="table-bordered">
			<tbody>
				<tr>
					<td>p3</td><td>Handmade Ceramic Mug</td><td>₹24</td><td>mug.jpg</td><td>58</td><td>0.78</td>
				</tr>
				<tr>
					<td> p1 </td><td>Crimson Nike Flyknit Sneakers</td><td> 8,695 </td><td><img src="nike.jpg"></td><td>124</td><td>93%</td>
				</tr>
				<tr>
					<td>this row has unsifficient number of cells</td><td></td>
				</tr>
				<tr>
					<td>bad</td><td>Broken</td><td>10</td><td></td><td>1</td><td>1.7</td>
				</tr>
				<tr>
					<td>bad2</td><td>Broken</td><td>free</td><td></td><td>1</td><td>0.5</td>
				</tr>
			</tbody>
		</table>
	</body>
	</html>`

	expectedProducts := []models.Product{
		{
			ID: "p3", Title: "Handmade Ceramic Mug", Price: 24, Image: "mug.jpg", LikeCount: 58,
			Comments: []models.Comment{}, RelevanceScore: 0.78,
		},
		{
			ID: "p1", Title: "Crimson Nike Flyknit Sneakers", Price: 8695, Image: "nike.jpg", LikeCount: 124,
			Comments: []models.Comment{}, RelevanceScore: 0.93,
		},
	}

	testCases := []struct {
		name      string
		inputHTML string
		expected  []models.Product
	}{
		{
			name:      "Successful parsing",
			inputHTML: validHTML,
			expected:  expectedProducts,
		},
		{
			name:      "Empty HTML",
			inputHTML: "",
			expected:  []models.Product(nil),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			products, err := p.parseTableResponse(t.Context(), strings.NewReader(tc.inputHTML))

			if err != nil {
				t.Fatalf("An error was not expected, but it occurred: %v", err)
			}

			if !reflect.DeepEqual(products, tc.expected) {
				t.Errorf("The result is not as expected.\nExpected: %#v\nReceived: %#v", tc.expected, products)
			}
		})
	}
}

func TestParseScore(t *testing.T) {
	testCases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "0.93", want: 0.93},
		{in: "97%", want: 0.97},
		{in: "0", want: 0},
		{in: "1", want: 1},
		{in: "-0.1", wantErr: true},
		{in: "150%", wantErr: true},
		{in: "high", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseScore(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "199", want: 199},
		{in: "Rs. 199", want: 199},
		{in: "₹8,695", want: 8695},
		{in: "$24.50", want: 24.5},
		{in: "1.299.00", want: 1299},
		{in: "1,299.99", want: 1299.99},
		{in: "12,5 €", want: 12.5},
		{in: "free", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parsePrice(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, errBadPrice)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

// =============================================================================
// Tests for network logic
// =============================================================================

func TestGetHTMLResponse(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := t.Context()

	testCases := []struct {
		name           string
		mockResponse   *http.Response
		mockError      error
		parserURL      string
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "Successful request (200 OK)",
			mockResponse: &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader("OK")),
			},
			parserURL: "http://test.com",
		},
		{
			name: "Server Error (500)",
			mockResponse: &http.Response{
				StatusCode: http.StatusInternalServerError,
				Status:     "500 Internal Server Error",
				Body:       io.NopCloser(strings.NewReader("Error")),
			},
			parserURL:      "http://test.com",
			expectError:    true,
			expectedErrMsg: "status code error: [500]",
		},
		{
			name:           "Network error",
			mockError:      errors.New("connection failed"),
			parserURL:      "http://test.com",
			expectError:    true,
			expectedErrMsg: "connection failed",
		},
		{
			name:           "Invalid URL in parser",
			parserURL:      "://invalid-url",
			expectError:    true,
			expectedErrMsg: "failed to parse destination URL",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rt := &mockRoundTripper{response: tc.mockResponse, err: tc.mockError}

			p := NewParser(logger, tc.parserURL)
			p.client = &http.Client{Transport: rt}

			resp, err := p.getHTMLResponse(ctx, "user_123")

			if tc.expectError {
				require.Error(t, err)
				require.ErrorContains(t, err, tc.expectedErrMsg)
				return
			}

			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "user_123", rt.lastReq.URL.Query().Get("user"))
		})
	}
}

// =============================================================================
// Integration test for the main method
// =============================================================================

func TestFetchRecommendations(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	successHTML := `
	<table class="table-bordered">
		<tbody>
			<tr><td>p3</td><td>Mug</td><td>24</td><td>u3</td><td>58</td><td>0.78</td></tr>
			<tr><td>p4</td><td>Minimalist Sneaker</td><td>129</td><td>u4</td><td>412</td><td>0.99</td></tr>
			<tr><td>p2</td><td>Headphones</td><td>199</td><td>u2</td><td>334</td><td>0.97</td></tr>
		</tbody>
	</table>`

	p := NewParser(logger, "http://valid-url.com")
	p.client = &http.Client{
		Transport: &mockRoundTripper{
			response: &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewReader([]byte(successHTML))),
			},
		},
	}

	products, err := p.FetchRecommendations(t.Context(), "user_123")
	require.NoError(t, err)

	var ids []string
	for _, product := range products {
		ids = append(ids, product.ID)
	}
	assert.Equal(t, []string{"p4", "p2", "p3"}, ids)
}

func TestFetchRecommendations_ResponseError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	p := NewParser(logger, ";;/invalid-url")

	products, err := p.FetchRecommendations(t.Context(), "")

	assert.Nil(t, products)
	require.Error(t, err)
	require.ErrorContains(t, err, "failed to get html response")
}
