package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"log"
	"math"
	"path"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/facette/natsort"

	"github.com/gallerypix/pipelinebackend/analysis"
	"github.com/gallerypix/pipelinebackend/gpu"
	"github.com/gallerypix/pipelinebackend/media"
	"github.com/gallerypix/pipelinebackend/models"
	"github.com/gallerypix/pipelinebackend/repository"
)

const (
	PipelineVersion = "2.0"

	styleBatchSize         = 20
	styleJpegQuality       = 95
	retouchFidelity        = 0.7
	compositionJpegQuality = 95
)

// cleanupDetections lists what the scene cleanup model is asked to remove
var cleanupDetections = []string{"power_lines", "exit_signs"}

// Preflight failure messages. These are stored verbatim in the job's error
// log, so wording is part of the API surface.
const (
	ErrMissingPhotographer = "Missing photographer_id"
	ErrNoPhotos            = "No photos found"
)

// Analyzer is the per-image analysis surface the orchestrator needs.
type Analyzer interface {
	Analyze(imageBytes []byte) (*analysis.Result, error)
}

// CompositionAdjuster evaluates and applies CPU composition corrections.
type CompositionAdjuster interface {
	Adjust(img image.Image, faces models.FaceList) (image.Image, media.CompositionMeta)
}

// OutputGenerator produces the delivery encodings for a finished photo.
type OutputGenerator interface {
	Generate(img image.Image) (*media.Outputs, error)
}

// Orchestrator drives one gallery through the six processing phases. All
// collaborators are injected; the orchestrator holds no global state and a
// single instance can serve many sequential runs.
type Orchestrator struct {
	Galleries      repository.GalleryRepositoryInterface
	Photos         repository.PhotoRepositoryInterface
	Jobs           repository.JobRepositoryInterface
	ProcessingJobs repository.ProcessingJobRepositoryInterface
	StyleProfiles  repository.StyleProfileRepositoryInterface

	Store  media.Store
	Bucket string

	Analyzer    Analyzer
	GPU         gpu.ComputeClient
	Composition CompositionAdjuster
	Output      OutputGenerator
}

// scratch is the run-scoped working state for one photo. It never outlives
// the run; everything worth keeping is persisted through the photo row.
type scratch struct {
	result    *analysis.Result
	editedKey string
	edits     models.AIEdits
}

type runState struct {
	job            *models.ProcessingJob
	gallery        *models.Gallery
	photos         []models.Photo
	total          int
	photographerID string

	gpuReady   bool
	hasPreset  bool
	styleName  string
	profileKey string

	cache map[string]*scratch
}

func (st *runState) scratchFor(photoID string) *scratch {
	sc, ok := st.cache[photoID]
	if !ok {
		sc = &scratch{edits: models.AIEdits{PipelineVersion: PipelineVersion}}
		st.cache[photoID] = sc
	}
	return sc
}

// Run processes one job to a terminal status. Anything that escapes the
// per-photo error handling is caught here and recorded on the job instead
// of taking the process down.
func (o *Orchestrator) Run(jobID string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("pipeline: PANIC processing job %s: %v\n%s", jobID, r, debug.Stack())
			o.failJob(jobID, fmt.Sprintf("unhandled error: %v", r))
		}
	}()
	o.run(jobID)
}

func (o *Orchestrator) run(jobID string) {
	job, err := o.ProcessingJobs.GetByID(jobID)
	if err != nil {
		o.failJob(jobID, fmt.Sprintf("failed to load processing job: %v", err))
		return
	}

	gallery, err := o.Galleries.GetByID(job.GalleryID)
	if err != nil {
		o.failJob(jobID, fmt.Sprintf("failed to load gallery %s: %v", job.GalleryID, err))
		return
	}

	photographerID := job.PhotographerID
	if photographerID == "" {
		photographerID = gallery.PhotographerID
	}
	if photographerID == "" {
		o.failJob(jobID, ErrMissingPhotographer)
		return
	}

	photos, err := o.Photos.ListByGalleryID(gallery.ID, false)
	if err != nil {
		o.failJob(jobID, fmt.Sprintf("failed to list photos: %v", err))
		return
	}
	if len(photos) == 0 {
		o.failJob(jobID, ErrNoPhotos)
		return
	}
	sortPhotos(photos)

	st := &runState{
		job:            job,
		gallery:        gallery,
		photos:         photos,
		total:          len(photos),
		photographerID: photographerID,
		cache:          make(map[string]*scratch, len(photos)),
	}
	// per-photo working state must not survive the run
	defer func() {
		for id := range st.cache {
			delete(st.cache, id)
		}
	}()
	defer func() {
		if o.GPU != nil {
			o.GPU.Close()
		}
	}()

	log.Printf("pipeline: job %s starting for gallery %s (%d photos)", job.ID, gallery.ID, st.total)

	st.gpuReady = o.probeGPU(job.ID)
	o.resolveStyleProfile(st)

	o.phaseAnalysis(st)
	o.phaseStyle(st)
	o.phaseRetouch(st)
	o.phaseCleanup(st)
	o.phaseComposition(st)
	o.phaseOutput(st)
	o.finalize(st)
}

// probeGPU decides once per run whether the GPU phases can execute. A
// degraded or unreachable service downgrades the run to CPU-only.
func (o *Orchestrator) probeGPU(jobID string) bool {
	if o.GPU == nil || !o.GPU.IsConfigured() {
		log.Printf("pipeline: job %s: GPU service not configured, running CPU-only", jobID)
		return false
	}

	status, err := o.GPU.Health()
	if err != nil {
		log.Printf("pipeline: job %s: GPU health probe failed, running CPU-only: %v", jobID, err)
		return false
	}
	if !status.Nominal() {
		log.Printf("pipeline: job %s: GPU service degraded (status=%s), running CPU-only", jobID, status.Status)
		return false
	}

	log.Printf("pipeline: job %s: GPU service healthy (gpu=%s, queue=%d)", jobID, status.GPUName, status.QueueDepth)
	return true
}

func (o *Orchestrator) resolveStyleProfile(st *runState) {
	if st.job.StyleProfileID == nil || *st.job.StyleProfileID == "" {
		return
	}

	profile, err := o.StyleProfiles.GetByID(*st.job.StyleProfileID)
	if err != nil {
		log.Printf("pipeline: job %s: style profile %s not loadable, falling back to auto baseline: %v",
			st.job.ID, *st.job.StyleProfileID, err)
		return
	}
	if profile.ModelKey == nil || *profile.ModelKey == "" {
		log.Printf("pipeline: job %s: style profile %s has no trained model, falling back to auto baseline",
			st.job.ID, profile.ID)
		return
	}

	st.hasPreset = true
	st.styleName = profile.ID
	st.profileKey = *profile.ModelKey
}

func (o *Orchestrator) setPhase(jobID, phase string, processed int) {
	if err := o.ProcessingJobs.SetPhase(jobID, phase, processed); err != nil {
		log.Printf("pipeline: failed to set job %s phase %s progress %d: %v", jobID, phase, processed, err)
	}
}

// --- phase 1: analysis ---

func (o *Orchestrator) phaseAnalysis(st *runState) {
	o.setPhase(st.job.ID, models.PhaseAnalysis, 0)
	rep := newPhaseReport(models.PhaseAnalysis)

	for i := range st.photos {
		photo := &st.photos[i]
		rep.record(photo.ID, o.analyzeOne(photo, st))
		o.setPhase(st.job.ID, models.PhaseAnalysis, i+1)
	}

	rep.log(st.job.ID)
	o.logDuplicateGroups(st)
	o.setPhase(st.job.ID, models.PhaseAnalysis, st.total)
}

func (o *Orchestrator) analyzeOne(photo *models.Photo, st *runState) error {
	data, err := o.Store.Download(o.Bucket, photo.OriginalKey)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	res, err := o.Analyzer.Analyze(data)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	details := res.QualityDetails
	if err := o.Photos.UpdateAnalysisByID(photo.ID, res.SceneType, res.QualityScore, &details,
		res.Faces, res.ExifData, res.Width, res.Height); err != nil {
		return fmt.Errorf("failed to persist analysis: %w", err)
	}

	// later phases read the in-memory copy, keep it in sync with the row
	photo.SceneType = &res.SceneType
	photo.QualityScore = &res.QualityScore
	photo.QualityDetails = &details
	photo.FaceData = res.Faces
	photo.Width = &res.Width
	photo.Height = &res.Height

	sc := st.scratchFor(photo.ID)
	sc.result = res
	return nil
}

func (o *Orchestrator) logDuplicateGroups(st *runState) {
	hashed := make([]analysis.HashedPhoto, 0, len(st.photos))
	for i := range st.photos {
		hp := analysis.HashedPhoto{ID: st.photos[i].ID}
		if sc, ok := st.cache[st.photos[i].ID]; ok && sc.result != nil {
			hp.PHash = sc.result.PHash
		}
		hashed = append(hashed, hp)
	}

	groups := analysis.GroupDuplicates(hashed, analysis.DefaultDuplicateThreshold)
	dupSets := 0
	for _, g := range groups {
		if len(g) > 1 {
			dupSets++
		}
	}
	log.Printf("pipeline: job %s: %d photos form %d groups (%d near-duplicate sets)",
		st.job.ID, len(hashed), len(groups), dupSets)
}

// --- phase 2: style ---

func (o *Orchestrator) phaseStyle(st *runState) {
	o.setPhase(st.job.ID, models.PhaseStyle, 0)
	if !st.gpuReady {
		log.Printf("pipeline: job %s: skipping style phase (GPU unavailable)", st.job.ID)
		o.setPhase(st.job.ID, models.PhaseStyle, st.total)
		return
	}
	if !st.hasPreset {
		log.Printf("pipeline: job %s: skipping style phase (no trained model)", st.job.ID)
		o.setPhase(st.job.ID, models.PhaseStyle, st.total)
		return
	}

	rep := newPhaseReport(models.PhaseStyle)
	processed := 0

	for start := 0; start < len(st.photos); start += styleBatchSize {
		end := start + styleBatchSize
		if end > len(st.photos) {
			end = len(st.photos)
		}
		batch := st.photos[start:end]

		items := make([]gpu.StyleBatchItem, 0, len(batch))
		for i := range batch {
			items = append(items, gpu.StyleBatchItem{
				ImageKey:  batch[i].OriginalKey,
				OutputKey: editedKeyFor(batch[i].OriginalKey),
			})
		}

		resp, err := o.GPU.StyleBatch(gpu.StyleBatchRequest{
			ProfileKey:  st.profileKey,
			Items:       items,
			JpegQuality: styleJpegQuality,
		})
		if err != nil {
			// a batch-level failure keeps originals for the rest of the
			// gallery rather than failing the run
			log.Printf("pipeline: job %s: style batch failed, keeping originals for remaining photos: %v",
				st.job.ID, err)
			break
		}

		failed := make(map[string]bool, len(resp.Failed))
		for _, key := range resp.Failed {
			failed[key] = true
		}

		for i := range batch {
			photo := &batch[i]
			outKey := editedKeyFor(photo.OriginalKey)
			if failed[photo.OriginalKey] || failed[outKey] {
				rep.record(photo.ID, fmt.Errorf("style transfer failed on compute service"))
				continue
			}

			sc := st.scratchFor(photo.ID)
			sc.editedKey = outKey
			sc.edits.StyleApplied = st.styleName
			sc.edits.HasPreset = st.hasPreset
			rep.record(photo.ID, o.Photos.UpdateEditedKeyByID(photo.ID, outKey, sc.edits))
		}

		processed += len(batch)
		o.setPhase(st.job.ID, models.PhaseStyle, processed)
	}

	rep.log(st.job.ID)
	o.setPhase(st.job.ID, models.PhaseStyle, st.total)
}

// --- phase 3: face retouch ---

func (o *Orchestrator) phaseRetouch(st *runState) {
	o.setPhase(st.job.ID, models.PhaseRetouch, 0)
	if !st.gpuReady {
		log.Printf("pipeline: job %s: skipping retouch phase (GPU unavailable)", st.job.ID)
		o.setPhase(st.job.ID, models.PhaseRetouch, st.total)
		return
	}

	rep := newPhaseReport(models.PhaseRetouch)

	for i := range st.photos {
		photo := &st.photos[i]
		if len(photo.FaceData) > 0 {
			rep.record(photo.ID, o.retouchOne(photo, st))
		}
		o.setPhase(st.job.ID, models.PhaseRetouch, i+1)
	}

	rep.log(st.job.ID)
}

func (o *Orchestrator) retouchOne(photo *models.Photo, st *runState) error {
	sc := st.scratchFor(photo.ID)
	outKey := editedKeyFor(photo.OriginalKey)

	resp, err := o.GPU.FaceRetouch(gpu.FaceRetouchRequest{
		ImageKey:  bestKey(photo, sc),
		OutputKey: outKey,
		Fidelity:  retouchFidelity,
		FaceData:  faceList(photo, sc),
	})
	if err != nil {
		return fmt.Errorf("face retouch failed: %w", err)
	}

	sc.editedKey = outKey
	sc.edits.FaceRetouch = &models.FaceRetouchEdit{
		Faces:    resp.FacesFound,
		Fidelity: retouchFidelity,
	}
	if err := o.Photos.UpdateEditedKeyByID(photo.ID, outKey, sc.edits); err != nil {
		return fmt.Errorf("failed to persist retouch: %w", err)
	}
	return nil
}

// --- phase 4: scene cleanup ---

func (o *Orchestrator) phaseCleanup(st *runState) {
	o.setPhase(st.job.ID, models.PhaseCleanup, 0)
	if !st.gpuReady {
		log.Printf("pipeline: job %s: skipping cleanup phase (GPU unavailable)", st.job.ID)
		o.setPhase(st.job.ID, models.PhaseCleanup, st.total)
		return
	}

	rep := newPhaseReport(models.PhaseCleanup)

	for i := range st.photos {
		photo := &st.photos[i]
		rep.record(photo.ID, o.cleanupOne(photo, st))
		o.setPhase(st.job.ID, models.PhaseCleanup, i+1)
	}

	rep.log(st.job.ID)
}

func (o *Orchestrator) cleanupOne(photo *models.Photo, st *runState) error {
	sc := st.scratchFor(photo.ID)
	outKey := editedKeyFor(photo.OriginalKey)

	resp, err := o.GPU.SceneCleanup(gpu.SceneCleanupRequest{
		ImageKey:   bestKey(photo, sc),
		OutputKey:  outKey,
		Detections: cleanupDetections,
	})
	if err != nil {
		return fmt.Errorf("scene cleanup failed: %w", err)
	}

	sc.editedKey = outKey
	// an annotation with nothing found would read as a removal; only record
	// cleanups that actually touched the image
	if resp.DetectionsFound > 0 {
		sc.edits.SceneCleanup = &models.SceneCleanupEdit{
			Detections:  resp.DetectionsFound,
			CoveragePct: resp.MaskCoveragePct,
		}
	}
	if err := o.Photos.UpdateEditedKeyByID(photo.ID, outKey, sc.edits); err != nil {
		return fmt.Errorf("failed to persist cleanup: %w", err)
	}
	return nil
}

// --- phase 5: composition ---

func (o *Orchestrator) phaseComposition(st *runState) {
	o.setPhase(st.job.ID, models.PhaseComposition, 0)
	rep := newPhaseReport(models.PhaseComposition)

	for i := range st.photos {
		photo := &st.photos[i]
		rep.record(photo.ID, o.composeOne(photo, st))
		o.setPhase(st.job.ID, models.PhaseComposition, i+1)
	}

	rep.log(st.job.ID)
}

// composeOne always records an evaluation, even when nothing changes, so
// the audit trail distinguishes "checked and fine" from "never checked".
func (o *Orchestrator) composeOne(photo *models.Photo, st *runState) error {
	sc := st.scratchFor(photo.ID)

	data, err := o.Store.Download(o.Bucket, bestKey(photo, sc))
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}

	adjusted, meta := o.Composition.Adjust(img, faceList(photo, sc))

	comp := &models.CompositionEdit{Evaluated: true}
	if !meta.Straightened && !meta.Cropped {
		sc.edits.Composition = comp
		if err := o.Photos.UpdateAIEditsByID(photo.ID, sc.edits); err != nil {
			return fmt.Errorf("failed to persist composition evaluation: %w", err)
		}
		return nil
	}

	comp.Changes = true
	comp.HorizonCorrected = meta.Straightened
	comp.HorizonAngle = meta.HorizonAngle
	comp.CropApplied = meta.Cropped
	if meta.Cropped {
		comp.CropRect = meta.CropRect[:]
	}

	encoded, err := media.EncodeJPEG(adjusted, compositionJpegQuality)
	if err != nil {
		return fmt.Errorf("re-encode failed: %w", err)
	}

	outKey := editedKeyFor(photo.OriginalKey)
	if err := o.Store.Upload(o.Bucket, outKey, encoded, "image/jpeg"); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	sc.editedKey = outKey
	sc.edits.Composition = comp
	if err := o.Photos.UpdateEditedKeyByID(photo.ID, outKey, sc.edits); err != nil {
		return fmt.Errorf("failed to persist composition edit: %w", err)
	}
	return nil
}

// --- phase 6: output ---

func (o *Orchestrator) phaseOutput(st *runState) {
	o.setPhase(st.job.ID, models.PhaseOutput, 0)
	rep := newPhaseReport(models.PhaseOutput)

	for i := range st.photos {
		photo := &st.photos[i]
		rep.record(photo.ID, o.outputOne(photo, st))
		o.setPhase(st.job.ID, models.PhaseOutput, i+1)
	}

	rep.log(st.job.ID)
}

func (o *Orchestrator) outputOne(photo *models.Photo, st *runState) error {
	sc := st.scratchFor(photo.ID)

	data, err := o.Store.Download(o.Bucket, bestKey(photo, sc))
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}

	outs, err := o.Output.Generate(img)
	if err != nil {
		return fmt.Errorf("output generation failed: %w", err)
	}

	keys := outputKeys(st.photographerID, st.gallery.ID, photo.Filename)

	// a styled or retouched photo already has a full-resolution edited asset;
	// writing the size-capped render over it would lose resolution
	editedKey := bestKey(photo, sc)
	if editedKey == photo.OriginalKey {
		if err := o.Store.Upload(o.Bucket, keys.full, outs.FullRes, "image/jpeg"); err != nil {
			return fmt.Errorf("full-res upload failed: %w", err)
		}
		editedKey = keys.full
	}
	if err := o.Store.Upload(o.Bucket, keys.web, outs.WebRes, "image/jpeg"); err != nil {
		return fmt.Errorf("web-res upload failed: %w", err)
	}
	if err := o.Store.Upload(o.Bucket, keys.thumb, outs.Thumbnail, "image/jpeg"); err != nil {
		return fmt.Errorf("thumbnail upload failed: %w", err)
	}

	confidence := computeEditConfidence(qualityOf(photo, sc), sc.edits)
	if err := o.Photos.FinalizeOutputByID(photo.ID, editedKey, keys.web, keys.thumb,
		outs.FullWidth, outs.FullHeight, confidence, sc.edits); err != nil {
		return fmt.Errorf("failed to finalize photo: %w", err)
	}
	return nil
}

func (o *Orchestrator) finalize(st *runState) {
	if err := o.Galleries.UpdateStatusByID(st.gallery.ID, models.GalleryStatusReady); err != nil {
		log.Printf("pipeline: job %s: failed to mark gallery %s ready: %v", st.job.ID, st.gallery.ID, err)
	}

	if st.gallery.JobID != nil && *st.gallery.JobID != "" {
		if err := o.Jobs.UpdateStatusByID(*st.gallery.JobID, models.JobStatusReadyForReview); err != nil {
			log.Printf("pipeline: job %s: failed to mark shooting job %s ready for review: %v",
				st.job.ID, *st.gallery.JobID, err)
		}
	}

	if err := o.ProcessingJobs.MarkCompleted(st.job.ID); err != nil {
		log.Printf("pipeline: failed to mark job %s completed: %v", st.job.ID, err)
		return
	}
	log.Printf("pipeline: job %s completed (%d photos)", st.job.ID, st.total)
}

func (o *Orchestrator) failJob(jobID, errLog string) {
	log.Printf("pipeline: job %s failed: %s", jobID, errLog)
	if err := o.ProcessingJobs.MarkFailed(jobID, errLog); err != nil {
		log.Printf("pipeline: failed to mark job %s failed: %v", jobID, err)
	}
}

// --- helpers ---

// sortPhotos orders photos by explicit sort order first, then naturally by
// filename so IMG_2 sorts before IMG_10.
func sortPhotos(photos []models.Photo) {
	sort.SliceStable(photos, func(i, j int) bool {
		if photos[i].SortOrder != photos[j].SortOrder {
			return photos[i].SortOrder < photos[j].SortOrder
		}
		if photos[i].Filename != photos[j].Filename {
			return natsort.Compare(photos[i].Filename, photos[j].Filename)
		}
		return photos[i].ID < photos[j].ID
	})
}

// bestKey returns the most-processed available object key for a photo.
func bestKey(photo *models.Photo, sc *scratch) string {
	if sc.editedKey != "" {
		return sc.editedKey
	}
	if photo.EditedKey != nil && *photo.EditedKey != "" {
		return *photo.EditedKey
	}
	return photo.OriginalKey
}

func faceList(photo *models.Photo, sc *scratch) models.FaceList {
	if sc.result != nil {
		return sc.result.Faces
	}
	return photo.FaceData
}

func qualityOf(photo *models.Photo, sc *scratch) float64 {
	if sc.result != nil {
		return sc.result.QualityScore
	}
	if photo.QualityScore != nil {
		return *photo.QualityScore
	}
	return 0
}

// editedKeyFor maps an original upload key into the edited/ tree, forcing a
// .jpg extension since every edit re-encodes as JPEG.
func editedKeyFor(originalKey string) string {
	key := originalKey
	if strings.HasPrefix(key, "uploads/") {
		key = "edited/" + strings.TrimPrefix(key, "uploads/")
	} else {
		key = "edited/" + key
	}
	if ext := path.Ext(key); ext != "" {
		key = strings.TrimSuffix(key, ext)
	}
	return key + ".jpg"
}

type deliveryKeys struct {
	full  string
	web   string
	thumb string
}

func outputKeys(photographerID, galleryID, filename string) deliveryKeys {
	base := strings.TrimSuffix(filename, path.Ext(filename))
	prefix := photographerID + "/" + galleryID + "/" + base
	return deliveryKeys{
		full:  "edited/" + prefix + ".jpg",
		web:   "web/" + prefix + "_web.jpg",
		thumb: "thumbs/" + prefix + "_thumb.jpg",
	}
}

// computeEditConfidence derives the reviewer-facing confidence score from
// measured quality plus small boosts for each successful enhancement.
func computeEditConfidence(quality float64, edits models.AIEdits) float64 {
	conf := math.Min(100, quality)
	if edits.StyleApplied != "" {
		conf = math.Min(100, conf+5)
	}
	if edits.FaceRetouch != nil {
		conf = math.Min(100, conf+3)
	}
	if edits.Composition != nil && edits.Composition.HorizonCorrected {
		conf = math.Min(100, conf+2)
	}
	return math.Round(conf*10) / 10
}
