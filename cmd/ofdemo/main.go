package main

import (
	"flag"
	"log"
	"os"

	"github.com/dpglue/dpkit/internal/openface"
)

// matchedOut is where act test drops annotated copies of matched images,
// under a per-day subdirectory.
const matchedOut = "/www/experiments"

type options struct {
	test       bool
	classifier string
	pcut       float64
	action     string
	mpf        string
	modelPath  string
	dbPath     string
	workdir    string
}

func parseFlags() options {
	var o options

	flag.BoolVar(&o.test, "t", false, "reserved, currently unused")
	flag.BoolVar(&o.test, "test", false, "reserved, currently unused")
	flag.StringVar(&o.classifier, "c", "SVC", "classifier method: RF, Neighbors or SVC")
	flag.StringVar(&o.classifier, "classifier", "SVC", "classifier method: RF, Neighbors or SVC")
	flag.Float64Var(&o.pcut, "p", 0.4, "probability threshold for the test action")
	flag.Float64Var(&o.pcut, "pcut", 0.4, "probability threshold for the test action")
	flag.StringVar(&o.action, "a", "rep", "action: rep, train, test, predict or pca")
	flag.StringVar(&o.action, "action", "rep", "action: rep, train, test, predict or pca")
	flag.StringVar(&o.mpf, "mpf", "./mapping.json", "class mapping file")
	flag.StringVar(&o.modelPath, "model-path", "./", "root directory of persisted model files")
	flag.StringVar(&o.dbPath, "d", "/www/database/db/", "directory holding representation DBs")
	flag.StringVar(&o.dbPath, "dbpath", "/www/database/db/", "directory holding representation DBs")
	flag.StringVar(&o.workdir, "w", "", "image directory (default: current directory)")
	flag.StringVar(&o.workdir, "workdir", "", "image directory (default: current directory)")

	flag.Parse()
	return o
}

var actions = map[string]func(*openface.Session, options) error{
	"rep": func(s *openface.Session, o options) error {
		_, err := s.ActReps(o.workdir)
		return err
	},
	"train": func(s *openface.Session, o options) error {
		s.SetClassifier(o.classifier)
		return s.ActTrain()
	},
	"pca": func(s *openface.Session, o options) error {
		return s.ActPCA(2, o.mpf)
	},
	"predict": func(s *openface.Session, o options) error {
		s.SetClassifier(o.classifier)
		return s.ActPredict(o.mpf, o.modelPath, o.workdir)
	},
	"test": func(s *openface.Session, o options) error {
		s.SetClassifier(o.classifier)
		_, err := s.ActTest(o.mpf, o.modelPath, o.pcut, matchedOut)
		return err
	},
}

func main() {
	o := parseFlags()

	if o.workdir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			log.Fatalf("Failed to get working directory: %v", err)
		}
		o.workdir = cwd
	}

	faceModels := os.Getenv("FACE_MODEL_DIR")
	if faceModels == "" {
		faceModels = "models"
	}

	run, ok := actions[o.action]
	if !ok {
		log.Fatalf("Unknown action %q, want rep, train, test, predict or pca", o.action)
	}

	session := openface.NewSession(openface.Config{FaceModelDir: faceModels})
	defer session.Close()
	session.SetDBs(o.dbPath)

	if err := run(session, o); err != nil {
		log.Fatalf("Action %s failed: %v", o.action, err)
	}
}
