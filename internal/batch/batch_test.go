package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StinkyLord/sbomkit/internal/compare"
	"github.com/StinkyLord/sbomkit/internal/convert"
	"github.com/StinkyLord/sbomkit/internal/model"
	"github.com/StinkyLord/sbomkit/internal/testutil/testlog"
)

func document(schema model.Schema, zlibVersion string) *model.Document {
	b := model.NewDocumentBuilder()
	b.ForSchema(schema)
	b.SetName("app")
	b.AddLicense("CC0-1.0")

	var pb interface {
		SetName(string)
		SetVersion(string)
		Build() *model.Component
	}
	switch schema {
	case model.CDX14:
		pb = model.NewCDX14PackageBuilder()
	case model.SPDX23:
		pb = model.NewSPDX23PackageBuilder()
	default:
		pb = model.NewSVIPComponentBuilder()
	}
	pb.SetName("zlib")
	pb.SetVersion(zlibVersion)
	b.AddComponent(pb.Build())
	return b.Build()
}

func TestDiffKeepsInputOrder(t *testing.T) {
	testlog.Start(t)
	broken := document(model.SVIP, "1.2.13")
	broken.Format = model.Ptr("SWID")

	others := []Input{
		{Name: "same.json", Document: document(model.SVIP, "1.2.13")},
		{Name: "bumped.json", Document: document(model.SVIP, "1.3.0")},
		{Name: "broken.json", Document: broken},
		{Name: "nil.json"},
	}

	report, err := New(nil, 2).Diff(context.Background(), Input{Name: "target.json", Document: document(model.SVIP, "1.2.13")}, others)
	require.NoError(t, err)
	require.Len(t, report.Results, 4)
	assert.Equal(t, "target.json", report.Target)

	for i, res := range report.Results {
		assert.Equal(t, i, res.Index)
		assert.Equal(t, others[i].Name, res.Name)
	}

	same := report.Results[0]
	require.NoError(t, same.Err)
	assert.True(t, same.Comparison.Identical())

	bumped := report.Results[1].Comparison
	require.NotNil(t, bumped)
	assert.Equal(t, "target.json", bumped.Target)
	assert.Equal(t, "bumped.json", bumped.Other)
	assert.NotEmpty(t, bumped.Conflicts)
	assert.Equal(t, report.Conflicts(), len(bumped.Conflicts))

	require.Error(t, report.Results[2].Err)
	assert.True(t, errors.Is(report.Results[2].Err, convert.ErrUnsupportedSchema))
	assert.Nil(t, report.Results[2].Comparison)
	require.Error(t, report.Results[3].Err)

	failed := report.Failed()
	require.Len(t, failed, 2)
	assert.Equal(t, "broken.json", failed[0].Name)
}

func TestDiffAcrossSchemas(t *testing.T) {
	testlog.Start(t)
	report, err := New(nil, 0).Diff(context.Background(),
		Input{Name: "app.cdx.json", Document: document(model.CDX14, "1.2.13")},
		[]Input{{Name: "app.spdx.json", Document: document(model.SPDX23, "1.2.13")}},
	)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	require.NoError(t, report.Results[0].Err)

	for _, c := range report.Results[0].Comparison.Conflicts {
		assert.NotEqual(t, compare.MissingComponent, c.MismatchKind, c.Field)
		assert.NotEqual(t, compare.VersionMismatch, c.MismatchKind, c.Field)
	}
}

func TestDiffManyDocuments(t *testing.T) {
	testlog.Start(t)
	others := make([]Input, 50)
	for i := range others {
		others[i] = Input{Name: fmt.Sprintf("doc-%02d", i), Document: document(model.SVIP, fmt.Sprintf("1.%d", i%3))}
	}
	report, err := New(nil, 4).Diff(context.Background(), Input{Name: "target", Document: document(model.SVIP, "1.0")}, others)
	require.NoError(t, err)
	require.Len(t, report.Results, 50)
	for i, res := range report.Results {
		require.NoError(t, res.Err)
		assert.Equal(t, i%3 == 0, res.Comparison.Identical(), res.Name)
	}
}

func TestDiffCancelled(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil, 1).Diff(ctx, Input{Name: "target", Document: document(model.SVIP, "1")},
		[]Input{{Name: "a", Document: document(model.SVIP, "1")}, {Name: "b", Document: document(model.SVIP, "2")}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiffTargetErrors(t *testing.T) {
	testlog.Start(t)
	_, err := New(nil, 1).Diff(context.Background(), Input{Name: "target"}, nil)
	assert.Error(t, err)

	unknown := document(model.SVIP, "1")
	unknown.Format = model.Ptr("SWID")
	_, err = New(nil, 1).Diff(context.Background(), Input{Name: "target", Document: unknown}, nil)
	assert.ErrorIs(t, err, convert.ErrUnsupportedSchema)
}

func TestNewDefaultsWorkers(t *testing.T) {
	testlog.Start(t)
	assert.Equal(t, runtime.NumCPU(), New(nil, 0).Workers())
	assert.Equal(t, 3, New(nil, 3).Workers())
}
