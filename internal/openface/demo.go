package openface

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/plot/plotter"

	"github.com/dpglue/dpkit/internal/imutil"
)

const (
	repsFile    = "result.json"
	mappingFile = "mapping.json"
)

// Config carries the explicit session parameters.
type Config struct {
	// FaceModelDir holds the dlib model files for the embedder.
	FaceModelDir string
}

// Session is the demo workflow state: the selected classifier, the
// representation DB list and the lazily created embedder. Each field is
// written by exactly one call path before it is read; there is no
// concurrent access.
type Session struct {
	cfg Config

	ml       Classifier
	kind     string
	dbs      []string
	embedder *Embedder
}

func NewSession(cfg Config) *Session {
	return &Session{cfg: cfg}
}

// Close releases the embedder if one was created.
func (s *Session) Close() {
	if s.embedder != nil {
		s.embedder.Close()
	}
}

// SetClassifier binds the classifier for method and records its kind.
// Must be called before training, testing and predicting.
func (s *Session) SetClassifier(method string) {
	s.ml = NewClassifier(method)
	s.kind = s.ml.Kind()
}

// Kind reports the bound classifier kind, empty before SetClassifier.
func (s *Session) Kind() string { return s.kind }

// SetDBs records the representation DB files found under dbpath. A
// missing or empty directory leaves the list empty; the actions that need
// DBs fail then.
func (s *Session) SetDBs(dbpath string) {
	dbs, err := imutil.FindFiles(dbpath, "json")
	if err != nil {
		s.dbs = nil
		return
	}
	s.dbs = dbs
}

func (s *Session) checkDBs() error {
	if len(s.dbs) == 0 {
		return errors.New("no db is found, make sure SetDBs ran properly")
	}
	return nil
}

func (s *Session) checkClassifier() error {
	if s.ml == nil {
		return errors.New("no classifier is set, make sure SetClassifier ran properly")
	}
	return nil
}

func (s *Session) loadReps() (RepDB, error) {
	if err := s.checkDBs(); err != nil {
		return nil, err
	}
	return LoadRepDBs(s.dbs)
}

// readModel loads the persisted model of the selected classifier kind
// from root and binds it to the session.
func (s *Session) readModel(root string) error {
	if err := s.checkClassifier(); err != nil {
		return err
	}
	mpath := filepath.Join(root, s.kind+".pkl")
	if _, err := os.Stat(mpath); err != nil {
		return errors.Errorf("%s does not exist", mpath)
	}
	ml, err := LoadClassifier(s.kind, mpath)
	if err != nil {
		return err
	}
	s.ml = ml
	return nil
}

func (s *Session) embed() (*Embedder, error) {
	if s.embedder == nil {
		e, err := NewEmbedder(s.cfg.FaceModelDir)
		if err != nil {
			return nil, err
		}
		s.embedder = e
	}
	return s.embedder, nil
}

// ActReps embeds every image under dir (the working directory when dir is
// empty) and writes the representation DB to result.json.
func (s *Session) ActReps(dir string) (RepDB, error) {
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return nil, errors.Wrap(err, "cannot resolve working directory")
		}
	}
	images, err := imutil.FindImages(dir)
	if err != nil {
		return nil, err
	}
	e, err := s.embed()
	if err != nil {
		return nil, err
	}

	db := RepDB{}
	for _, img := range images {
		rep, ok, err := e.RepFor(img)
		if err != nil {
			return nil, err
		}
		if !ok {
			fmt.Printf("[ofdemo] no face found in %s, skipping\n", img)
			continue
		}
		db[img] = rep
	}
	if err := imutil.WriteJSON(repsFile, db); err != nil {
		return nil, err
	}
	fmt.Printf("[ofdemo] %d representations written to %s\n", len(db), repsFile)
	return db, nil
}

// ActTrain fits the selected classifier on the loaded representation DBs,
// persists the model to <kind>.pkl and writes the class mapping file.
func (s *Session) ActTrain() error {
	if err := s.checkClassifier(); err != nil {
		return err
	}
	db, err := s.loadReps()
	if err != nil {
		return err
	}

	table := BuildTrainingTable(db)
	if err := s.ml.Train(table.X, table.Y, len(table.Classes)); err != nil {
		return errors.Wrapf(err, "training %s failed", s.kind)
	}
	if err := SaveClassifier(s.ml, s.kind+".pkl"); err != nil {
		return err
	}
	if err := imutil.WriteJSON(mappingFile, table.Mapping()); err != nil {
		return err
	}
	fmt.Printf("[ofdemo] trained %s on %d samples over %d classes\n", s.kind, len(table.X), len(table.Classes))
	return nil
}

// ActPCA decomposes each mapped class's representations to ncomp
// principal components, drawing a histogram (1 component) or scatter (2)
// per class plus one combined plot with a legend.
func (s *Session) ActPCA(ncomp int, mpf string) error {
	fmt.Printf("[ofdemo] ncomp = %d\n", ncomp)

	var mapping map[string]int
	if err := imutil.ReadJSON(mpf, &mapping); err != nil {
		return err
	}
	db, err := s.loadReps()
	if err != nil {
		return err
	}

	tokens := make([]string, 0, len(mapping))
	for tok := range mapping {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	var (
		legend []string
		all1D  [][]float64
		all2D  []plotter.XYs
	)
	for _, tok := range tokens {
		var reps [][]float64
		for _, p := range sortedPaths(db) {
			if db[p].Class == tok {
				reps = append(reps, db[p].Rep)
			}
		}
		if len(reps) == 0 {
			continue
		}

		fname := tok + "_pca.png"
		if ncomp == 1 {
			proj, err := PCA(repMatrix(reps), 1)
			if err != nil {
				return errors.Wrapf(err, "pca for class %s", tok)
			}
			vals := make([]float64, len(reps))
			for i := range vals {
				vals[i] = proj.At(i, 0)
			}
			if err := plotHistogram(vals, fname); err != nil {
				return err
			}
			all1D = append(all1D, vals)
		} else {
			proj, err := PCA(repMatrix(reps), 2)
			if err != nil {
				return errors.Wrapf(err, "pca for class %s", tok)
			}
			xs := make([]float64, len(reps))
			ys := make([]float64, len(reps))
			pts := make(plotter.XYs, len(reps))
			for i := range pts {
				xs[i] = proj.At(i, 0)
				ys[i] = proj.At(i, 1)
				pts[i].X, pts[i].Y = xs[i], ys[i]
			}
			if err := plotPoints(xs, ys, fname); err != nil {
				return err
			}
			all2D = append(all2D, pts)
		}
		legend = append(legend, tok)
	}

	if ncomp == 1 {
		return plot1DDists(all1D, legend, "pca_all.png")
	}
	return plotClasses(all2D, legend, "pca_all.png")
}

// ActPredict loads the persisted model, embeds the images under dir and
// prints each image's path with its resolved display label (mapping file
// inverted, first match).
func (s *Session) ActPredict(mpf, modelRoot, dir string) error {
	if err := s.readModel(modelRoot); err != nil {
		return err
	}
	db, err := s.ActReps(dir)
	if err != nil {
		return err
	}
	var mapping map[string]int
	if err := imutil.ReadJSON(mpf, &mapping); err != nil {
		return err
	}

	tokens := make([]string, 0, len(mapping))
	for tok := range mapping {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	for _, p := range sortedPaths(db) {
		pred, err := s.ml.Predict(db[p].Rep)
		if err != nil {
			return err
		}
		label := ""
		for _, tok := range tokens {
			if mapping[tok] == pred {
				label = tok
				break
			}
		}
		if label == "" {
			return errors.Errorf("predicted class %d has no mapping entry", pred)
		}
		fmt.Printf("[ofdemo] parsing %s\n", db[p].Path)
		fmt.Println(label)
	}
	return nil
}

// TestReport summarizes one ActTest run.
type TestReport struct {
	Match    int
	Mismatch int
	Total    int
}

// Recall is matches over all test cases; ok is false when there were no
// cases.
func (r TestReport) Recall() (float64, bool) {
	if r.Total == 0 {
		return 0, false
	}
	return float64(r.Match) / float64(r.Total), true
}

// Precision is matches over threshold-exceeding decisions; ok is false
// when there were none.
func (r TestReport) Precision() (float64, bool) {
	if r.Match+r.Mismatch == 0 {
		return 0, false
	}
	return float64(r.Match) / float64(r.Match+r.Mismatch), true
}

// ActTest predicts every grouped test case against its ground truth. For
// probability classifiers a case matches only when the maximum
// probability exceeds thre with the right argmax; exceeding thre with the
// wrong argmax is a mismatch, and predictions below thre count as
// neither. Matched images get their face box drawn and saved under
// outBase/<today>. Recall and precision lines are skipped when their
// denominator is zero.
func (s *Session) ActTest(mpf, modelRoot string, thre float64, outBase string) (TestReport, error) {
	fmt.Printf("[ofdemo] threshold applied %.2f\n", thre)

	var report TestReport
	if err := s.readModel(modelRoot); err != nil {
		return report, err
	}
	db, err := s.loadReps()
	if err != nil {
		return report, err
	}
	var mapping map[string]int
	if err := imutil.ReadJSON(mpf, &mapping); err != nil {
		return report, err
	}
	cases, err := BuildTestCases(db, mapping)
	if err != nil {
		return report, err
	}

	outDir, err := imutil.TodayDir(outBase)
	if err != nil {
		return report, err
	}

	for _, c := range cases {
		found, misMatch := false, false
		for j, rep := range c.Reps {
			probs, hasProbs := s.ml.Probabilities(rep)
			if !hasProbs {
				pred, err := s.ml.Predict(rep)
				if err != nil {
					return report, err
				}
				if pred == c.Truth {
					if _, err := imutil.AnnotateRect(c.Path, c.Pos[j], outDir); err != nil {
						return report, err
					}
					found = true
				}
				continue
			}

			vmax, imax := probs[0], 0
			for i, p := range probs {
				if p > vmax {
					vmax, imax = p, i
				}
			}
			if vmax > thre {
				if imax == c.Truth {
					if _, err := imutil.AnnotateRect(c.Path, c.Pos[j], outDir); err != nil {
						return report, err
					}
					found = true
				} else {
					misMatch = true
				}
			}
		}
		if found {
			report.Match++
		}
		if misMatch {
			report.Mismatch++
		}
	}
	report.Total = len(cases)

	if recall, ok := report.Recall(); ok {
		fmt.Printf("[ofdemo] recall = %.2f\n", recall)
	}
	if precision, ok := report.Precision(); ok {
		fmt.Printf("[ofdemo] precision = %.2f\n", precision)
	}
	fmt.Printf("[ofdemo] images with roi are saved to %s\n", outDir)
	return report, nil
}
