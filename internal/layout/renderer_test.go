package layout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdfutil "github.com/planpress/planpress/internal/pdf"
)

func sampleLayout() Layout {
	return Layout{
		Title:    "Plan de Prevencion",
		Subtitle: "Plan personalizado",
		Footer:   "Generado por PlanPress",
		Sections: []Section{
			{
				Title: "Datos del paciente",
				Rows: []Row{
					{Label: "Nombre", Value: "Ana Garcia"},
					{Label: "Fecha", Value: "marzo de 2025"},
				},
			},
			{
				Title:     "Recomendaciones",
				Paragraph: "Mantener una dieta equilibrada y realizar actividad fisica regular.",
			},
		},
	}
}

func TestRenderProducesVerifiablePDF(t *testing.T) {
	data, err := NewPDFRenderer().Render(context.Background(), sampleLayout())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	pages, err := pdfutil.Verify(data)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)

	text, err := pdfutil.ExtractText(data)
	require.NoError(t, err)
	assert.Contains(t, text, "Ana Garcia")
	assert.Contains(t, text, "marzo de 2025")
	assert.Contains(t, text, "dieta equilibrada")
}

func TestRenderHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPDFRenderer().Render(ctx, sampleLayout())
	assert.Error(t, err)
}
