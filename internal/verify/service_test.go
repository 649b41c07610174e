package verify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/presence/internal/models"
)

type fakeImageStore struct {
	objects map[string][]byte
	putErr  error
	puts    int
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{objects: map[string][]byte{}}
}

func (f *fakeImageStore) Put(_ context.Context, key string, data []byte, _ string) error {
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[key] = data
	return nil
}

func (f *fakeImageStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found: " + key)
	}
	return data, nil
}

type fakeExtractor struct {
	lines []string
	err   error
	calls int
}

func (f *fakeExtractor) ExtractLines(_ context.Context, _ string) ([]string, error) {
	f.calls++
	return f.lines, f.err
}

type fakeComparator struct {
	scores    []float64
	err       error
	calls     int
	sourceKey string
}

func (f *fakeComparator) Similarities(_ context.Context, sourceKey, _ string) ([]float64, error) {
	f.calls++
	f.sourceKey = sourceKey
	return f.scores, f.err
}

type fakeRecordStore struct {
	records map[string]models.ParticipationRecord
	err     error
	writes  int
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: map[string]models.ParticipationRecord{}}
}

func (f *fakeRecordStore) Upsert(_ context.Context, rec models.ParticipationRecord) error {
	f.writes++
	if f.err != nil {
		return f.err
	}
	f.records[rec.Email+"|"+rec.Date] = rec
	return nil
}

type fakePublisher struct {
	events []models.VerificationEvent
	err    error
}

func (f *fakePublisher) PublishVerification(_ context.Context, evt models.VerificationEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, evt)
	return nil
}

func defaultOptions() Options {
	return Options{
		NamesImageKey:      "reference/names.jpg",
		FacesImageKey:      "reference/faces.jpg",
		FaceMatchThreshold: 80,
		Policy:             PolicyEither,
		NameMatchMode:      MatchExact,
	}
}

func validRequest() Request {
	return Request{
		Name:  "Jane Doe",
		Email: "jane@x.com",
		Date:  "2024-05-01",
		Image: []byte("jpeg-bytes"),
	}
}

func TestVerifyBothSignalsMatch(t *testing.T) {
	images := newFakeImageStore()
	ocr := &fakeExtractor{lines: []string{"Alice Smith", "Jane Doe"}}
	faces := &fakeComparator{scores: []float64{91.2}}
	records := newFakeRecordStore()
	pub := &fakePublisher{}

	svc := NewService(images, ocr, faces, records, pub, defaultOptions())

	res, err := svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, res.NameMatch)
	assert.True(t, res.FaceMatch)
	assert.True(t, res.Participation)

	rec, ok := records.records["jane@x.com|2024-05-01"]
	require.True(t, ok, "record stored under (email, date)")
	assert.Equal(t, "Jane Doe", rec.Name)
	assert.True(t, rec.Participated)

	require.Len(t, pub.events, 1)
	assert.True(t, pub.events[0].Participation)
	assert.True(t, strings.HasPrefix(pub.events[0].ImageKey, SubmissionPrefix))
}

func TestVerifyNeitherSignalMatches(t *testing.T) {
	images := newFakeImageStore()
	ocr := &fakeExtractor{lines: []string{"Alice Smith"}}
	faces := &fakeComparator{scores: []float64{12.5}}
	records := newFakeRecordStore()

	svc := NewService(images, ocr, faces, records, nil, defaultOptions())

	res, err := svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)

	assert.False(t, res.NameMatch)
	assert.False(t, res.FaceMatch)
	assert.False(t, res.Participation)

	rec := records.records["jane@x.com|2024-05-01"]
	assert.False(t, rec.Participated, "negative verdicts are recorded too")
}

func TestVerifyPolicyBothRequiresBothSignals(t *testing.T) {
	images := newFakeImageStore()
	ocr := &fakeExtractor{lines: []string{"Jane Doe"}}
	faces := &fakeComparator{scores: []float64{10}}
	records := newFakeRecordStore()

	opts := defaultOptions()
	opts.Policy = PolicyBoth
	svc := NewService(images, ocr, faces, records, nil, opts)

	res, err := svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, res.NameMatch)
	assert.False(t, res.FaceMatch)
	assert.False(t, res.Participation)
}

func TestVerifyMissingFields(t *testing.T) {
	images := newFakeImageStore()
	ocr := &fakeExtractor{}
	faces := &fakeComparator{}
	records := newFakeRecordStore()

	svc := NewService(images, ocr, faces, records, nil, defaultOptions())

	for _, mutate := range []func(*Request){
		func(r *Request) { r.Name = "" },
		func(r *Request) { r.Email = "" },
		func(r *Request) { r.Date = "" },
		func(r *Request) { r.Image = nil },
	} {
		req := validRequest()
		mutate(&req)

		_, err := svc.Verify(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, CodeInvalidRequest, ErrorCode(err))
	}

	assert.Zero(t, images.puts, "no image stored for invalid requests")
	assert.Zero(t, ocr.calls, "no collaborator calls for invalid requests")
	assert.Zero(t, faces.calls)
	assert.Zero(t, records.writes, "no record written for invalid requests")
}

func TestVerifyImageStoreFailureIsTerminal(t *testing.T) {
	images := newFakeImageStore()
	images.putErr = errors.New("bucket unreachable")
	faces := &fakeComparator{scores: []float64{95}}
	records := newFakeRecordStore()

	svc := NewService(images, &fakeExtractor{}, faces, records, nil, defaultOptions())

	_, err := svc.Verify(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, CodeStorageUnavailable, ErrorCode(err))

	assert.Zero(t, faces.calls, "face check never runs without a stored image")
	assert.Zero(t, records.writes)
}

func TestVerifyOCRFailureResolvesToFalse(t *testing.T) {
	images := newFakeImageStore()
	ocr := &fakeExtractor{err: errors.New("ocr service down")}
	faces := &fakeComparator{scores: []float64{95}}
	records := newFakeRecordStore()

	svc := NewService(images, ocr, faces, records, nil, defaultOptions())

	res, err := svc.Verify(context.Background(), validRequest())
	require.NoError(t, err, "collaborator soft failure must not abort the request")

	assert.False(t, res.NameMatch)
	assert.True(t, res.FaceMatch)
	assert.True(t, res.Participation)
	assert.Equal(t, 1, records.writes)
}

func TestVerifyFaceComparatorFailureResolvesToFalse(t *testing.T) {
	images := newFakeImageStore()
	ocr := &fakeExtractor{lines: []string{"Jane Doe"}}
	faces := &fakeComparator{err: errors.New("comparison service down")}
	records := newFakeRecordStore()

	svc := NewService(images, ocr, faces, records, nil, defaultOptions())

	res, err := svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, res.NameMatch)
	assert.False(t, res.FaceMatch)
	assert.True(t, res.Participation)
}

func TestVerifyRecordWriteFailure(t *testing.T) {
	images := newFakeImageStore()
	ocr := &fakeExtractor{lines: []string{"Jane Doe"}}
	faces := &fakeComparator{scores: []float64{95}}
	records := newFakeRecordStore()
	records.err = errors.New("database down")
	pub := &fakePublisher{}

	svc := NewService(images, ocr, faces, records, pub, defaultOptions())

	_, err := svc.Verify(context.Background(), validRequest())
	require.Error(t, err, "an unrecorded verdict is a hard failure")
	assert.Equal(t, CodeRecordWriteFailed, ErrorCode(err))

	assert.Empty(t, records.records, "no partial record left behind")
	assert.Empty(t, pub.events, "no event published for unrecorded verdicts")
}

func TestVerifyResubmissionOverwrites(t *testing.T) {
	images := newFakeImageStore()
	ocr := &fakeExtractor{lines: []string{"Jane Doe"}}
	faces := &fakeComparator{scores: []float64{95}}
	records := newFakeRecordStore()

	svc := NewService(images, ocr, faces, records, nil, defaultOptions())

	_, err := svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)

	// Second submission for the same (email, date) no longer matches.
	ocr.lines = nil
	faces.scores = nil

	res, err := svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.False(t, res.Participation)

	require.Len(t, records.records, 1, "one logical record per (email, date)")
	assert.False(t, records.records["jane@x.com|2024-05-01"].Participated, "last write wins")
}

func TestVerifyPublisherFailureIsSoft(t *testing.T) {
	images := newFakeImageStore()
	ocr := &fakeExtractor{lines: []string{"Jane Doe"}}
	faces := &fakeComparator{scores: []float64{95}}
	records := newFakeRecordStore()
	pub := &fakePublisher{err: errors.New("nats down")}

	svc := NewService(images, ocr, faces, records, pub, defaultOptions())

	res, err := svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, res.Participation)
}

func TestVerifyStoresSubmittedImage(t *testing.T) {
	images := newFakeImageStore()
	ocr := &fakeExtractor{lines: []string{"Jane Doe"}}
	faces := &fakeComparator{scores: []float64{95}}
	records := newFakeRecordStore()

	svc := NewService(images, ocr, faces, records, nil, defaultOptions())

	_, err := svc.Verify(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, images.objects, 1)
	for key, data := range images.objects {
		assert.True(t, strings.HasPrefix(key, SubmissionPrefix))
		assert.True(t, strings.HasSuffix(key, ".jpg"))
		assert.Equal(t, []byte("jpeg-bytes"), data)
		assert.Equal(t, key, faces.sourceKey, "face check reads the stored image")
	}
}

func TestCheckFaceMatchThresholdBoundary(t *testing.T) {
	images := newFakeImageStore()
	records := newFakeRecordStore()

	cases := []struct {
		scores []float64
		want   bool
	}{
		{[]float64{80}, true}, // at threshold counts
		{[]float64{79.9}, false},
		{[]float64{10, 85}, true}, // any score clears it
		{nil, false},
	}

	for _, tc := range cases {
		faces := &fakeComparator{scores: tc.scores}
		svc := NewService(images, &fakeExtractor{}, faces, records, nil, defaultOptions())
		assert.Equal(t, tc.want, svc.CheckFaceMatch(context.Background(), "submissions/x.jpg"),
			"scores %v", tc.scores)
	}
}
