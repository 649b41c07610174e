// Package ocr extracts printed text from stored images via AWS Textract.
package ocr

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

// ObjectGetter resolves a stored image key to its bytes.
type ObjectGetter interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

type TextractExtractor struct {
	client  *textract.Client
	objects ObjectGetter
}

func NewTextractExtractor(awsCfg aws.Config, objects ObjectGetter) *TextractExtractor {
	return &TextractExtractor{
		client:  textract.NewFromConfig(awsCfg),
		objects: objects,
	}
}

// ExtractLines runs document text detection over the image stored under
// imageKey and returns its LINE blocks in reading order.
func (e *TextractExtractor) ExtractLines(ctx context.Context, imageKey string) ([]string, error) {
	data, err := e.objects.Get(ctx, imageKey)
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", imageKey, err)
	}

	out, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: data},
	})
	if err != nil {
		return nil, fmt.Errorf("detect document text: %w", err)
	}

	var lines []string
	for _, block := range out.Blocks {
		if block.BlockType == types.BlockTypeLine && block.Text != nil {
			lines = append(lines, *block.Text)
		}
	}
	return lines, nil
}
