package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reslide/pkg/domain/types"
	"github.com/m-mizutani/reslide/pkg/infra/archive"
	"github.com/m-mizutani/reslide/pkg/usecase"
)

func openTestPackage(t *testing.T, files map[string]string) *archive.Archive {
	a, err := archive.Open(createTestZip(t, files))
	gt.NoError(t, err)
	return a
}

func TestSlideEntries(t *testing.T) {
	files := testPackage()
	files["ppt/slides/slide10.xml"] = testSlide
	files["ppt/slides/slide2.xml"] = testSlide

	entries := usecase.SlideEntries(openTestPackage(t, files))
	gt.Equal(t, entries, []string{
		"ppt/slides/slide1.xml",
		"ppt/slides/slide10.xml",
		"ppt/slides/slide2.xml",
	})
}

func TestLocate(t *testing.T) {
	ctx := context.Background()

	t.Run("follows relationships to layout and theme", func(t *testing.T) {
		bundle, err := usecase.Locate(ctx, openTestPackage(t, testPackage()), 0)
		gt.NoError(t, err)

		gt.Equal(t, bundle.SlideName, "ppt/slides/slide1.xml")
		gt.Equal(t, bundle.SlideNumber, 1)
		gt.Equal(t, bundle.Slide, testSlide)
		gt.Equal(t, bundle.LayoutName, "ppt/slideLayouts/slideLayout2.xml")
		gt.Equal(t, bundle.Layout, testLayout)
		gt.Equal(t, bundle.ThemeName, "ppt/theme/theme3.xml")
		gt.Equal(t, bundle.Theme, testTheme)
		gt.Equal(t, len(bundle.Warnings), 0)
	})

	t.Run("collects only vector images", func(t *testing.T) {
		bundle, err := usecase.Locate(ctx, openTestPackage(t, testPackage()), 0)
		gt.NoError(t, err)

		gt.Equal(t, len(bundle.Images), 1)
		payload, ok := bundle.ImageByRelationship("rId3")
		gt.True(t, ok)
		gt.Equal(t, string(payload), testSVG)

		_, ok = bundle.ImageByRelationship("rId2")
		gt.False(t, ok)
	})

	t.Run("selects a slide by number", func(t *testing.T) {
		files := testPackage()
		files["ppt/slides/slide2.xml"] = "<p:sld/>"

		bundle, err := usecase.Locate(ctx, openTestPackage(t, files), 2)
		gt.NoError(t, err)
		gt.Equal(t, bundle.SlideName, "ppt/slides/slide2.xml")
		gt.Equal(t, bundle.SlideNumber, 2)
	})

	t.Run("falls back to numbered layout and theme without relationships", func(t *testing.T) {
		files := map[string]string{
			"ppt/slides/slide1.xml":             testSlide,
			"ppt/slideLayouts/slideLayout1.xml": testLayout,
			"ppt/theme/theme1.xml":              testTheme,
		}

		bundle, err := usecase.Locate(ctx, openTestPackage(t, files), 0)
		gt.NoError(t, err)
		gt.Equal(t, bundle.LayoutName, "ppt/slideLayouts/slideLayout1.xml")
		gt.Equal(t, bundle.ThemeName, "ppt/theme/theme1.xml")
		gt.Equal(t, len(bundle.Warnings), 2)
	})

	t.Run("missing optional parts become warnings", func(t *testing.T) {
		files := testPackage()
		delete(files, "ppt/slideLayouts/slideLayout2.xml")
		delete(files, "ppt/theme/theme3.xml")
		delete(files, "ppt/media/image2.svg")

		bundle, err := usecase.Locate(ctx, openTestPackage(t, files), 0)
		gt.NoError(t, err)
		gt.Equal(t, bundle.Layout, "")
		gt.Equal(t, bundle.LayoutName, "")
		gt.Equal(t, bundle.Theme, "")
		gt.Equal(t, len(bundle.Images), 0)
		gt.Equal(t, len(bundle.Warnings), 3)
	})

	t.Run("empty layout and theme keep their names", func(t *testing.T) {
		files := testPackage()
		files["ppt/slideLayouts/slideLayout2.xml"] = ""
		files["ppt/theme/theme3.xml"] = ""

		bundle, err := usecase.Locate(ctx, openTestPackage(t, files), 0)
		gt.NoError(t, err)
		gt.Equal(t, bundle.Layout, "")
		gt.Equal(t, bundle.LayoutName, "ppt/slideLayouts/slideLayout2.xml")
		gt.Equal(t, bundle.Theme, "")
		gt.Equal(t, bundle.ThemeName, "ppt/theme/theme3.xml")
		gt.Equal(t, bundle.Warnings, []string{
			"slide layout is empty: ppt/slideLayouts/slideLayout2.xml",
			"theme is empty: ppt/theme/theme3.xml",
		})
	})

	t.Run("fails when the package has no slides", func(t *testing.T) {
		files := testPackage()
		delete(files, "ppt/slides/slide1.xml")

		_, err := usecase.Locate(ctx, openTestPackage(t, files), 0)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagNotFound))
	})

	t.Run("fails when the requested slide does not exist", func(t *testing.T) {
		_, err := usecase.Locate(ctx, openTestPackage(t, testPackage()), 5)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagNotFound))
	})

	t.Run("rejects a negative index", func(t *testing.T) {
		_, err := usecase.Locate(ctx, openTestPackage(t, testPackage()), -1)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagInvalidInput))
	})

	t.Run("does not inflate unrelated entries", func(t *testing.T) {
		files := testPackage()
		files["ppt/media/video1.mp4"] = "large payload"

		a := openTestPackage(t, files)
		_, err := usecase.Locate(ctx, a, 0)
		gt.NoError(t, err)
		gt.False(t, a.Inflated("ppt/media/video1.mp4"))
		gt.False(t, a.Inflated("ppt/media/image1.png"))
		gt.True(t, a.Inflated("ppt/media/image2.svg"))
	})
}
