package main

import (
	"github.com/disintegration/imaging"
	"github.com/pomo-mondreganto/lookalike/internal/imghash"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

var (
	paths = pflag.StringArrayP("files", "f", []string{"sample.jpg", "sample.jpg"}, "Paths of images to compare")
)

func main() {
	pflag.Parse()
	if len(*paths) != 2 {
		logrus.Fatalf("Pass 2 images to compare")
	}
	cmp, err := imghash.NewComparator()
	if err != nil {
		logrus.Fatalf("Error creating comparator: %v", err)
	}

	first := load((*paths)[0])
	second := load((*paths)[1])
	verdicts, err := cmp.Distances(first, second)
	if err != nil {
		logrus.Fatalf("Error calculating distances: %v", err)
	}

	similar := false
	for i, v := range verdicts {
		spec := cmp.Specs()[i]
		logrus.Printf("%-16s distance %.4f (%s %v): %v", v.Algorithm, v.Distance, spec.Direction, spec.Threshold, v.Similar)
		similar = similar || v.Similar
	}
	if similar {
		logrus.Printf("Images are visually the same")
	} else {
		logrus.Printf("Images differ")
	}
}

func load(path string) *imghash.Entity {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		logrus.Fatalf("Error decoding image: %v", err)
	}
	return imghash.NewEntity(path, img)
}
