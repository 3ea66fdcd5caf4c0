package main

import (
	"github.com/disintegration/imaging"
	"github.com/pomo-mondreganto/lookalike/internal/imghash"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

var (
	path = pflag.StringP("file", "f", "sample.jpg", "Path to image to hash")
)

func main() {
	pflag.Parse()
	img, err := imaging.Open(*path, imaging.AutoOrientation(true))
	if err != nil {
		logrus.Fatalf("Error decoding image: %v", err)
	}

	cmp, err := imghash.NewComparator()
	if err != nil {
		logrus.Fatalf("Error creating comparator: %v", err)
	}
	e := imghash.NewEntity(*path, img)
	for _, alg := range imghash.Algorithms() {
		hash, err := cmp.Hash(e, alg)
		if err != nil {
			logrus.Fatalf("Error calculating hash: %v", err)
		}
		logrus.Printf("%s hash is %s", alg, hash)
	}
}
