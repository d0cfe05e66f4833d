package services

import (
	"context"
	"fmt"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/gofiber/fiber/v2/log"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// Likelihood is an ordinal safety rating. The zero value is Unknown.
type Likelihood int

const (
	LikelihoodUnknown Likelihood = iota
	LikelihoodVeryUnlikely
	LikelihoodUnlikely
	LikelihoodPossible
	LikelihoodLikely
	LikelihoodVeryLikely
)

func (l Likelihood) String() string {
	switch l {
	case LikelihoodVeryUnlikely:
		return "VERY_UNLIKELY"
	case LikelihoodUnlikely:
		return "UNLIKELY"
	case LikelihoodPossible:
		return "POSSIBLE"
	case LikelihoodLikely:
		return "LIKELY"
	case LikelihoodVeryLikely:
		return "VERY_LIKELY"
	default:
		return "UNKNOWN"
	}
}

// Verdict is the safety classification of one image.
type Verdict struct {
	Adult    Likelihood
	Violence Likelihood
}

// Unsafe reports whether either category is rated likely or very likely.
func (v Verdict) Unsafe() bool {
	return v.Adult >= LikelihoodLikely || v.Violence >= LikelihoodLikely
}

// Moderator classifies raw image bytes.
type Moderator interface {
	Check(ctx context.Context, image []byte) (Verdict, error)
}

// AllowAllModerator accepts every image. It is installed when moderation is
// disabled for local development.
type AllowAllModerator struct{}

func (AllowAllModerator) Check(context.Context, []byte) (Verdict, error) {
	return Verdict{}, nil
}

// safeSearchClient is the part of the Vision client the moderator uses.
type safeSearchClient interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// VisionModerator runs Google Cloud Vision SafeSearch detection.
type VisionModerator struct {
	client  safeSearchClient
	timeout time.Duration
}

// NewVisionModerator creates a Vision client authenticated with the given
// service account credentials file.
func NewVisionModerator(ctx context.Context, credentialsFile string, timeout time.Duration) (*VisionModerator, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}
	return &VisionModerator{client: client, timeout: timeout}, nil
}

func (m *VisionModerator) Check(ctx context.Context, image []byte) (Verdict, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	resp, err := m.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_SAFE_SEARCH_DETECTION}},
		}},
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: safe search: %v", ErrUpstream, err)
	}
	if len(resp.GetResponses()) == 0 {
		return Verdict{}, fmt.Errorf("%w: safe search returned no result", ErrUpstream)
	}

	result := resp.GetResponses()[0]
	if status := result.GetError(); status != nil {
		return Verdict{}, fmt.Errorf("%w: safe search: %s", ErrUpstream, status.GetMessage())
	}

	verdict := verdictFromAnnotation(result.GetSafeSearchAnnotation())
	log.Debugw("safe search verdict", "adult", verdict.Adult, "violence", verdict.Violence)
	return verdict, nil
}

func (m *VisionModerator) Close() error {
	return m.client.Close()
}

func verdictFromAnnotation(a *visionpb.SafeSearchAnnotation) Verdict {
	return Verdict{
		Adult:    likelihoodFromVision(a.GetAdult()),
		Violence: likelihoodFromVision(a.GetViolence()),
	}
}

func likelihoodFromVision(l visionpb.Likelihood) Likelihood {
	switch l {
	case visionpb.Likelihood_VERY_UNLIKELY:
		return LikelihoodVeryUnlikely
	case visionpb.Likelihood_UNLIKELY:
		return LikelihoodUnlikely
	case visionpb.Likelihood_POSSIBLE:
		return LikelihoodPossible
	case visionpb.Likelihood_LIKELY:
		return LikelihoodLikely
	case visionpb.Likelihood_VERY_LIKELY:
		return LikelihoodVeryLikely
	default:
		return LikelihoodUnknown
	}
}
