// Package faces scores facial similarity between stored images via AWS
// Rekognition.
package faces

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// ObjectGetter resolves a stored image key to its bytes.
type ObjectGetter interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

type RekognitionComparator struct {
	client  *rekognition.Client
	objects ObjectGetter
	// threshold is forwarded to the comparison call so the collaborator only
	// reports matches at or above it.
	threshold float64
}

func NewRekognitionComparator(awsCfg aws.Config, objects ObjectGetter, threshold float64) *RekognitionComparator {
	return &RekognitionComparator{
		client:    rekognition.NewFromConfig(awsCfg),
		objects:   objects,
		threshold: threshold,
	}
}

// Similarities compares the face in the image under sourceKey against the
// face in the image under referenceKey and returns the similarity score of
// each reported match on a 0-100 scale.
func (c *RekognitionComparator) Similarities(ctx context.Context, sourceKey, referenceKey string) ([]float64, error) {
	source, err := c.objects.Get(ctx, sourceKey)
	if err != nil {
		return nil, fmt.Errorf("load source image %s: %w", sourceKey, err)
	}
	reference, err := c.objects.Get(ctx, referenceKey)
	if err != nil {
		return nil, fmt.Errorf("load reference image %s: %w", referenceKey, err)
	}

	out, err := c.client.CompareFaces(ctx, &rekognition.CompareFacesInput{
		SourceImage:         &types.Image{Bytes: source},
		TargetImage:         &types.Image{Bytes: reference},
		SimilarityThreshold: aws.Float32(float32(c.threshold)),
	})
	if err != nil {
		return nil, fmt.Errorf("compare faces: %w", err)
	}

	scores := make([]float64, 0, len(out.FaceMatches))
	for _, match := range out.FaceMatches {
		if match.Similarity != nil {
			scores = append(scores, float64(*match.Similarity))
		}
	}
	return scores, nil
}
