package main

import (
	"flag"

	"docchat/internal/database/model"
	"docchat/pkg/logger"

	"gorm.io/gen"
)

func main() {
	out := flag.String("out", "internal/database/query", "output package directory")
	flag.Parse()

	g := gen.NewGenerator(gen.Config{
		OutPath:        *out,
		ModelPkgPath:   "internal/database/model",
		Mode:           gen.WithDefaultQuery | gen.WithQueryInterface | gen.WithoutContext,
		FieldNullable:  true,
		FieldCoverable: true,
	})

	// typed query helpers for the hand-written models
	g.ApplyBasic(model.All()...)

	g.Execute()
	logger.Info("gen: query package written to %s", *out)
}
