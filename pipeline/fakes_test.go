package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/gallerypix/pipelinebackend/analysis"
	"github.com/gallerypix/pipelinebackend/gpu"
	"github.com/gallerypix/pipelinebackend/media"
	"github.com/gallerypix/pipelinebackend/models"
)

const testBucket = "photos"

type phaseStep struct {
	phase     string
	processed int
}

// fakeState is the shared in-memory database behind the fake repositories.
type fakeState struct {
	mu        sync.Mutex
	galleries map[string]*models.Gallery
	photos    map[string]*models.Photo
	jobs      map[string]*models.Job
	pjobs     map[string]*models.ProcessingJob
	profiles  map[string]*models.StyleProfile
	phaseLog  []phaseStep
}

func newFakeState() *fakeState {
	return &fakeState{
		galleries: map[string]*models.Gallery{},
		photos:    map[string]*models.Photo{},
		jobs:      map[string]*models.Job{},
		pjobs:     map[string]*models.ProcessingJob{},
		profiles:  map[string]*models.StyleProfile{},
	}
}

type fakeGalleries struct{ st *fakeState }

func (f *fakeGalleries) GetByID(id string) (*models.Gallery, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	g, ok := f.st.galleries[id]
	if !ok {
		return nil, fmt.Errorf("gallery %s not found", id)
	}
	return g, nil
}

func (f *fakeGalleries) UpdateStatusByID(id, status string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	g, ok := f.st.galleries[id]
	if !ok {
		return fmt.Errorf("gallery %s not found", id)
	}
	g.Status = status
	return nil
}

type fakePhotos struct{ st *fakeState }

func (f *fakePhotos) GetByID(id string) (*models.Photo, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	p, ok := f.st.photos[id]
	if !ok {
		return nil, fmt.Errorf("photo %s not found", id)
	}
	return p, nil
}

func (f *fakePhotos) ListByGalleryID(galleryID string, includeCulled bool) ([]models.Photo, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []models.Photo
	for _, p := range f.st.photos {
		if p.GalleryID != galleryID {
			continue
		}
		if p.IsCulled && !includeCulled {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePhotos) ListByFilter(filters map[string]string) ([]models.Photo, error) {
	return nil, nil
}

func (f *fakePhotos) UpdateAnalysisByID(id, sceneType string, score float64, details *models.QualityDetails, faces models.FaceList, exif models.ExifMap, width, height int) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	p, ok := f.st.photos[id]
	if !ok {
		return fmt.Errorf("photo %s not found", id)
	}
	p.SceneType = &sceneType
	p.QualityScore = &score
	p.QualityDetails = details
	p.FaceData = faces
	p.ExifData = exif
	p.Width = &width
	p.Height = &height
	return nil
}

func (f *fakePhotos) UpdateEditedKeyByID(id, editedKey string, edits models.AIEdits) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	p, ok := f.st.photos[id]
	if !ok {
		return fmt.Errorf("photo %s not found", id)
	}
	p.EditedKey = &editedKey
	p.AIEdits = edits
	return nil
}

func (f *fakePhotos) UpdateAIEditsByID(id string, edits models.AIEdits) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	p, ok := f.st.photos[id]
	if !ok {
		return fmt.Errorf("photo %s not found", id)
	}
	p.AIEdits = edits
	return nil
}

func (f *fakePhotos) FinalizeOutputByID(id, editedKey, webKey, thumbKey string, width, height int, confidence float64, edits models.AIEdits) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	p, ok := f.st.photos[id]
	if !ok {
		return fmt.Errorf("photo %s not found", id)
	}
	p.EditedKey = &editedKey
	p.WebKey = &webKey
	p.ThumbKey = &thumbKey
	p.Width = &width
	p.Height = &height
	p.EditConfidence = &confidence
	p.AIEdits = edits
	p.Status = models.PhotoStatusEdited
	return nil
}

type fakeJobs struct{ st *fakeState }

func (f *fakeJobs) UpdateStatusByID(id, status string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	j, ok := f.st.jobs[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	j.Status = status
	return nil
}

type fakeProcessingJobs struct{ st *fakeState }

func (f *fakeProcessingJobs) Create(job *models.ProcessingJob) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.pjobs[job.ID] = job
	return nil
}

func (f *fakeProcessingJobs) GetByID(id string) (*models.ProcessingJob, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	j, ok := f.st.pjobs[id]
	if !ok {
		return nil, fmt.Errorf("processing job %s not found", id)
	}
	return j, nil
}

func (f *fakeProcessingJobs) SetPhase(id, phase string, processed int) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	j, ok := f.st.pjobs[id]
	if !ok {
		return fmt.Errorf("processing job %s not found", id)
	}
	j.Status = models.ProcessingStatusProcessing
	j.CurrentPhase = phase
	j.ProcessedImages = processed
	f.st.phaseLog = append(f.st.phaseLog, phaseStep{phase: phase, processed: processed})
	return nil
}

func (f *fakeProcessingJobs) MarkCompleted(id string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	j, ok := f.st.pjobs[id]
	if !ok {
		return fmt.Errorf("processing job %s not found", id)
	}
	j.Status = models.ProcessingStatusCompleted
	ts := int64(1)
	j.CompletedAt = &ts
	return nil
}

func (f *fakeProcessingJobs) MarkFailed(id, errLog string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	j, ok := f.st.pjobs[id]
	if !ok {
		return fmt.Errorf("processing job %s not found", id)
	}
	j.Status = models.ProcessingStatusFailed
	j.ErrorLog = &errLog
	ts := int64(1)
	j.CompletedAt = &ts
	return nil
}

type fakeProfiles struct{ st *fakeState }

func (f *fakeProfiles) GetByID(id string) (*models.StyleProfile, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	p, ok := f.st.profiles[id]
	if !ok {
		return nil, fmt.Errorf("style profile %s not found", id)
	}
	return p, nil
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Download(bucket, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("object not found at '%s/%s'", bucket, key)
	}
	return data, nil
}

func (f *fakeStore) Upload(bucket, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = data
	return nil
}

func (f *fakeStore) has(bucket, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[bucket+"/"+key]
	return ok
}

func (f *fakeStore) copyObject(bucket, from, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+from]
	if !ok {
		return fmt.Errorf("object not found at '%s/%s'", bucket, from)
	}
	f.objects[bucket+"/"+to] = data
	return nil
}

// fakeAnalyzer returns canned results. Objects carry their photo ID as a
// trailing marker after the JPEG payload, which stdlib decoders ignore.
type fakeAnalyzer struct {
	results map[string]*analysis.Result
}

func (f *fakeAnalyzer) Analyze(data []byte) (*analysis.Result, error) {
	for id, res := range f.results {
		if bytes.HasSuffix(data, []byte(id)) {
			return res, nil
		}
	}
	return nil, analysis.ErrUndecodable
}

// fakeGPU mimics the compute service by copying input objects to their
// output keys, as the real service writes results back to shared storage.
type fakeGPU struct {
	configured bool
	status     string
	store      *fakeStore

	healthCalls  int
	styleCalls   int
	retouchCalls int
	cleanupCalls int

	lastProfileKey string
	lastFaceData   models.FaceList
	styleFail      bool
	cleanupEmpty   bool
}

func (f *fakeGPU) IsConfigured() bool { return f.configured }
func (f *fakeGPU) Close()             {}

func (f *fakeGPU) Health() (gpu.HealthStatus, error) {
	f.healthCalls++
	return gpu.HealthStatus{Status: f.status}, nil
}

func (f *fakeGPU) StyleBatch(req gpu.StyleBatchRequest) (*gpu.StyleBatchResponse, error) {
	f.styleCalls++
	f.lastProfileKey = req.ProfileKey
	if f.styleFail {
		return nil, fmt.Errorf("cuda out of memory")
	}
	resp := &gpu.StyleBatchResponse{}
	for _, item := range req.Items {
		if err := f.store.copyObject(testBucket, item.ImageKey, item.OutputKey); err != nil {
			resp.Failed = append(resp.Failed, item.ImageKey)
			continue
		}
		resp.Processed++
	}
	return resp, nil
}

func (f *fakeGPU) FaceRetouch(req gpu.FaceRetouchRequest) (*gpu.FaceRetouchResponse, error) {
	f.retouchCalls++
	f.lastFaceData = req.FaceData
	if err := f.store.copyObject(testBucket, req.ImageKey, req.OutputKey); err != nil {
		return nil, err
	}
	return &gpu.FaceRetouchResponse{FacesFound: len(req.FaceData)}, nil
}

func (f *fakeGPU) SceneCleanup(req gpu.SceneCleanupRequest) (*gpu.SceneCleanupResponse, error) {
	f.cleanupCalls++
	if err := f.store.copyObject(testBucket, req.ImageKey, req.OutputKey); err != nil {
		return nil, err
	}
	if f.cleanupEmpty {
		return &gpu.SceneCleanupResponse{}, nil
	}
	return &gpu.SceneCleanupResponse{DetectionsFound: 1, MaskCoveragePct: 0.4}, nil
}

// fakeComposition applies a fixed adjustment result to every photo.
type fakeComposition struct {
	meta media.CompositionMeta
}

func (f *fakeComposition) Adjust(img image.Image, faces models.FaceList) (image.Image, media.CompositionMeta) {
	return img, f.meta
}

// fixture wires an orchestrator against the fakes with one gallery.
type fixture struct {
	st    *fakeState
	store *fakeStore
	gpuc  *fakeGPU
	an    *fakeAnalyzer
	comp  *fakeComposition
	orc   *Orchestrator

	galleryID string
	jobID     string
}

func newFixture() *fixture {
	st := newFakeState()
	store := newFakeStore()
	an := &fakeAnalyzer{results: map[string]*analysis.Result{}}
	gpuc := &fakeGPU{store: store}
	comp := &fakeComposition{}

	f := &fixture{
		st:        st,
		store:     store,
		gpuc:      gpuc,
		an:        an,
		comp:      comp,
		galleryID: "g-1",
		jobID:     "pj-1",
	}

	shootJobID := "sj-1"
	st.galleries[f.galleryID] = &models.Gallery{
		ID:             f.galleryID,
		Name:           "Test Shoot",
		PhotographerID: "ph-1",
		JobID:          &shootJobID,
		Status:         models.GalleryStatusProcessing,
	}
	st.jobs[shootJobID] = &models.Job{ID: shootJobID, PhotographerID: "ph-1", Status: models.JobStatusEditing}
	st.pjobs[f.jobID] = &models.ProcessingJob{
		ID:             f.jobID,
		GalleryID:      f.galleryID,
		PhotographerID: "ph-1",
		CurrentPhase:   models.PhaseQueued,
		Status:         models.ProcessingStatusQueued,
	}

	f.orc = &Orchestrator{
		Galleries:      &fakeGalleries{st},
		Photos:         &fakePhotos{st},
		Jobs:           &fakeJobs{st},
		ProcessingJobs: &fakeProcessingJobs{st},
		StyleProfiles:  &fakeProfiles{st},
		Store:          store,
		Bucket:         testBucket,
		Analyzer:       an,
		GPU:            gpuc,
		Composition:    comp,
		Output:         media.NewProcessor(),
	}
	return f
}

func testJPEG() []byte {
	img := imaging.New(64, 48, color.NRGBA{R: 90, G: 110, B: 130, A: 255})
	data, err := media.EncodeJPEG(img, 90)
	if err != nil {
		panic(err)
	}
	return data
}

// addPhoto registers a photo row, its stored original object and a canned
// analysis result with the given face count.
func (f *fixture) addPhoto(id, filename string, sortOrder, faceCount int) {
	key := "uploads/" + f.galleryID + "/" + filename
	f.st.photos[id] = &models.Photo{
		ID:          id,
		GalleryID:   f.galleryID,
		Filename:    filename,
		OriginalKey: key,
		SortOrder:   sortOrder,
		Status:      models.PhotoStatusUploaded,
	}

	object := append(testJPEG(), []byte(id)...)
	_ = f.store.Upload(testBucket, key, object, "image/jpeg")

	faces := models.FaceList{}
	for i := 0; i < faceCount; i++ {
		faces = append(faces, models.FaceBox{BBox: [4]int{10 * i, 10, 40, 40}, EyesOpen: true})
	}
	scene := analysis.ScenePortrait
	if faceCount == 0 {
		scene = analysis.SceneLandscape
	}
	f.an.results[id] = &analysis.Result{
		SceneType:    scene,
		QualityScore: 80,
		QualityDetails: models.QualityDetails{
			Overall: 80, Exposure: 85, Sharpness: 75, Noise: 80, Composition: 80,
		},
		Faces:     faces,
		FaceCount: faceCount,
		PHash:     "1100110011001100110011001100110011001100110011001100110011001100",
		Width:     64,
		Height:    48,
	}
}

// addTrainedProfile attaches a trained style profile to the processing job.
func (f *fixture) addTrainedProfile(id, modelKey string) {
	f.st.profiles[id] = &models.StyleProfile{
		ID:             id,
		PhotographerID: "ph-1",
		ModelKey:       &modelKey,
		Status:         "trained",
	}
	profileID := id
	f.st.pjobs[f.jobID].StyleProfileID = &profileID
}

func (f *fixture) photo(id string) *models.Photo {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.st.photos[id]
}

func (f *fixture) processingJob() *models.ProcessingJob {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.st.pjobs[f.jobID]
}

func (f *fixture) jobStatus() string {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.st.pjobs[f.jobID].Status
}
