package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sortwise/internal/common"
	"github.com/Veraticus/sortwise/internal/model"
)

// fakeGateway is a scripted Gateway.
type fakeGateway struct {
	err      error
	quotaErr error
	requests []GatewayRequest
	replies  []string
	quota    Quota
	mu       sync.Mutex
}

func (f *fakeGateway) Send(_ context.Context, req GatewayRequest) (GatewayResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if f.err != nil {
		return GatewayResponse{}, f.err
	}

	reply := ""
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	return GatewayResponse{Text: reply, Quota: f.quota}, nil
}

func (f *fakeGateway) GuestQuota(_ context.Context) (Quota, error) {
	return f.quota, f.quotaErr
}

func (f *fakeGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func testClassifierConfig() Config {
	return Config{
		MaxImageBytes:   1024,
		MaxOutputTokens: 600,
		RateLimit:       600,
		CacheEnabled:    true,
		CacheSizeMB:     1,
		CacheTTL:        time.Minute,
		UseWebSearch:    true,
	}
}

func TestClassifierClassify(t *testing.T) {
	t.Run("starbucks cup in san francisco", func(t *testing.T) {
		gw := &fakeGateway{
			replies: []string{`{"item":"Starbucks paper cup","material":"paper/plastic composite","recyclable":false,"bin":"trash","confidence":0.8}`},
			quota:   Quota{Used: 1, Remaining: 4, Limit: 5, Reported: true},
		}
		classifier := NewClassifier(gw, testClassifierConfig(), nil, common.DiscardLogger())

		outcome, err := classifier.Classify(context.Background(), model.ClassificationRequest{
			Mode:       model.ScanModeText,
			FreeText:   "Starbucks paper cup with plastic lid",
			PostalCode: "94102",
		}, "")
		require.NoError(t, err)

		assert.Equal(t, model.ClassificationResult{
			Item:       "Starbucks paper cup",
			Material:   "paper/plastic composite",
			Recyclable: false,
			Bin:        model.BinTrash,
			Confidence: 0.8,
		}, outcome.Result)
		assert.Equal(t, StrategyStrict, outcome.Strategy)
		assert.False(t, outcome.Degraded())
		assert.False(t, outcome.Cached)
		require.NotNil(t, outcome.Quota)
		assert.Equal(t, 4, outcome.Quota.Remaining)

		require.Len(t, gw.requests, 1)
		sent := gw.requests[0]
		assert.Equal(t, model.ScanModeText, sent.Mode)
		assert.Empty(t, sent.Image)
		assert.Empty(t, sent.BearerToken)
		assert.Equal(t, 600, sent.MaxOutputTokens)
		assert.True(t, sent.UseWebSearch)
		assert.Contains(t, sent.Prompt, "USER LOCATION ZIP: 94102")
		assert.Contains(t, sent.Prompt, "Starbucks paper cup with plastic lid")
	})

	t.Run("photo scan encodes image and forwards token", func(t *testing.T) {
		gw := &fakeGateway{replies: []string{`{"item":"Glass bottle","bin":"recycling","recyclable":true}`}}
		classifier := NewClassifier(gw, testClassifierConfig(), nil, common.DiscardLogger())

		outcome, err := classifier.Classify(context.Background(), model.ClassificationRequest{
			Mode:      model.ScanModePhoto,
			ImageData: []byte("jpeg bytes"),
			ImageMIME: "image/png",
		}, "user-token")
		require.NoError(t, err)
		assert.Equal(t, model.BinRecycling, outcome.Result.Bin)

		require.Len(t, gw.requests, 1)
		assert.Equal(t, EncodeImageDataURL([]byte("jpeg bytes"), "image/png"), gw.requests[0].Image)
		assert.Equal(t, "user-token", gw.requests[0].BearerToken)
		assert.Contains(t, gw.requests[0].Prompt, "USER LOCATION: (not provided)")
	})

	t.Run("photo scan without image", func(t *testing.T) {
		gw := &fakeGateway{}
		classifier := NewClassifier(gw, testClassifierConfig(), nil, common.DiscardLogger())

		_, err := classifier.Classify(context.Background(), model.ClassificationRequest{Mode: model.ScanModePhoto}, "")
		var validationErr *common.ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, 0, gw.calls())
	})

	t.Run("oversized photo", func(t *testing.T) {
		gw := &fakeGateway{}
		classifier := NewClassifier(gw, testClassifierConfig(), nil, common.DiscardLogger())

		_, err := classifier.Classify(context.Background(), model.ClassificationRequest{
			Mode:      model.ScanModePhoto,
			ImageData: make([]byte, 2048),
		}, "")
		var validationErr *common.ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, 0, gw.calls())
	})

	t.Run("relay failure is wrapped", func(t *testing.T) {
		gw := &fakeGateway{err: &common.InferenceError{Status: 500, Message: "boom"}}
		classifier := NewClassifier(gw, testClassifierConfig(), nil, common.DiscardLogger())

		_, err := classifier.Classify(context.Background(), model.ClassificationRequest{Mode: model.ScanModeText, FreeText: "can"}, "")
		require.Error(t, err)
		assert.True(t, IsInferenceError(err))
		assert.Contains(t, err.Error(), "classify text scan")
	})

	t.Run("prose reply is degraded", func(t *testing.T) {
		gw := &fakeGateway{replies: []string{"Item: Styrofoam tray\nBin: trash\nRecyclable: no"}}
		classifier := NewClassifier(gw, testClassifierConfig(), nil, common.DiscardLogger())

		outcome, err := classifier.Classify(context.Background(), model.ClassificationRequest{Mode: model.ScanModeText, FreeText: "foam tray"}, "")
		require.NoError(t, err)
		assert.True(t, outcome.Degraded())
		assert.Equal(t, "Styrofoam tray", outcome.Result.Item)
		assert.Equal(t, "Item: Styrofoam tray\nBin: trash\nRecyclable: no", outcome.RawText)
	})

	t.Run("canceled context stops before the relay", func(t *testing.T) {
		gw := &fakeGateway{}
		cfg := testClassifierConfig()
		cfg.RateLimit = 1
		classifier := NewClassifier(gw, cfg, nil, common.DiscardLogger())
		classifier.rateLimiter.tokens = 0

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := classifier.Classify(ctx, model.ClassificationRequest{Mode: model.ScanModeText, FreeText: "can"}, "")
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, gw.calls())
	})
}

func TestClassifierCache(t *testing.T) {
	reply := `{"item":"Aluminum can","material":"aluminum","recyclable":true,"bin":"recycling","confidence":0.95}`

	t.Run("repeated text scans hit the cache", func(t *testing.T) {
		gw := &fakeGateway{replies: []string{reply}}
		classifier := NewClassifier(gw, testClassifierConfig(), nil, common.DiscardLogger())
		req := model.ClassificationRequest{Mode: model.ScanModeText, FreeText: "soda can", PostalCode: "94102"}

		first, err := classifier.Classify(context.Background(), req, "")
		require.NoError(t, err)
		second, err := classifier.Classify(context.Background(), req, "")
		require.NoError(t, err)

		assert.Equal(t, 1, gw.calls())
		assert.False(t, first.Cached)
		assert.True(t, second.Cached)
		assert.Nil(t, second.Quota)
		assert.Equal(t, first.Result, second.Result)
	})

	t.Run("different zip misses", func(t *testing.T) {
		gw := &fakeGateway{replies: []string{reply, reply}}
		classifier := NewClassifier(gw, testClassifierConfig(), nil, common.DiscardLogger())

		_, err := classifier.Classify(context.Background(), model.ClassificationRequest{Mode: model.ScanModeText, FreeText: "soda can", PostalCode: "94102"}, "")
		require.NoError(t, err)
		_, err = classifier.Classify(context.Background(), model.ClassificationRequest{Mode: model.ScanModeText, FreeText: "soda can", PostalCode: "10001"}, "")
		require.NoError(t, err)

		assert.Equal(t, 2, gw.calls())
	})

	t.Run("photos are never cached", func(t *testing.T) {
		gw := &fakeGateway{replies: []string{reply, reply}}
		classifier := NewClassifier(gw, testClassifierConfig(), nil, common.DiscardLogger())
		req := model.ClassificationRequest{Mode: model.ScanModePhoto, ImageData: []byte("img")}

		_, err := classifier.Classify(context.Background(), req, "")
		require.NoError(t, err)
		_, err = classifier.Classify(context.Background(), req, "")
		require.NoError(t, err)

		assert.Equal(t, 2, gw.calls())
	})

	t.Run("disabled cache", func(t *testing.T) {
		gw := &fakeGateway{replies: []string{reply, reply}}
		cfg := testClassifierConfig()
		cfg.CacheEnabled = false
		classifier := NewClassifier(gw, cfg, nil, common.DiscardLogger())
		req := model.ClassificationRequest{Mode: model.ScanModeText, FreeText: "soda can"}

		_, err := classifier.Classify(context.Background(), req, "")
		require.NoError(t, err)
		_, err = classifier.Classify(context.Background(), req, "")
		require.NoError(t, err)

		assert.Equal(t, 2, gw.calls())
	})

	t.Run("empty replies are not cached", func(t *testing.T) {
		gw := &fakeGateway{replies: []string{"", reply}}
		classifier := NewClassifier(gw, testClassifierConfig(), nil, common.DiscardLogger())
		req := model.ClassificationRequest{Mode: model.ScanModeText, FreeText: "soda can"}

		first, err := classifier.Classify(context.Background(), req, "")
		require.NoError(t, err)
		assert.Equal(t, model.UnknownItem, first.Result.Item)

		second, err := classifier.Classify(context.Background(), req, "")
		require.NoError(t, err)
		assert.Equal(t, "Aluminum can", second.Result.Item)
		assert.Equal(t, 2, gw.calls())
	})
}

func TestClassifierGuestQuota(t *testing.T) {
	gw := &fakeGateway{quota: Quota{Used: 5, Remaining: 0, Limit: 5, Reported: true}}
	classifier := NewClassifier(gw, testClassifierConfig(), nil, common.DiscardLogger())

	quota, err := classifier.GuestQuota(context.Background())
	require.NoError(t, err)
	assert.True(t, quota.Exhausted())
}
