package extractor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zellmx/docindex/pkg/types"
)

func TestGuideBlocksFullDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "(12) Zell - Reintentos de domiciliación.docx")
	newDocxBuilder().
		para("", "Guía de Usuario Reintentos").
		para("", "Reintentos de domiciliación").
		para("", "ÍNDICE").
		para("", "1. Objetivo ... 2").
		para("", "OBJETIVO").
		para("", "Describir el proceso de reintentos.").
		para("", "TÉRMINOS Y DEFINICIONES").
		para("", "Domiciliación: cargo automático.").
		para("", "DESARROLLO").
		para("", "3.1 Ingresar al módulo de cobranza").
		para("", "Seleccionar la opción de reintentos").
		para("", "Página 2 de 4").
		para("", "Una vez guardado, el sistema confirma la operación").
		writeTo(t, path)

	plain, blocks, meta, err := Extract(path, UniverseGuides)
	require.NoError(t, err)

	assert.Equal(t, "Reintentos de domiciliación", meta.Title)
	assert.Equal(t, 12, meta.DocNumber)

	require.Len(t, blocks, 6)

	assert.Equal(t, types.BlockGuideTitle, blocks[0].Kind)
	assert.Equal(t, "Reintentos de domiciliación", blocks[0].Text)
	assert.Equal(t, "Título", blocks[0].Section)

	assert.Equal(t, "Describir el proceso de reintentos.", blocks[1].Text)
	assert.Equal(t, "OBJETIVO", blocks[1].Section)
	assert.Zero(t, blocks[1].StepNumber)

	assert.Equal(t, "Domiciliación: cargo automático.", blocks[2].Text)
	assert.Equal(t, "TÉRMINOS Y DEFINICIONES", blocks[2].Section)

	// explicit 3.1 step
	step := blocks[3]
	assert.Equal(t, 301, step.StepNumber)
	assert.Equal(t, "3.1", step.StepLabel)
	assert.Equal(t, "3.1\tIngresar al módulo de cobranza", step.Text)
	assert.Equal(t, "DESARROLLO - 3.1", step.Section)

	// implicit steps continue the counter from 1 within DESARROLLO
	imp := blocks[4]
	assert.Equal(t, "3.1", imp.StepLabel)
	assert.Equal(t, 301, imp.StepNumber)
	assert.Equal(t, "3.1\tSeleccionar la opción de reintentos", imp.Text)

	imp2 := blocks[5]
	assert.Equal(t, "3.2", imp2.StepLabel)
	assert.Equal(t, "3.2\tUna vez guardado, el sistema confirma la operación", imp2.Text)

	assert.Contains(t, plain, "Reintentos de domiciliación")
	assert.NotContains(t, plain, "1. Objetivo ... 2")
	assert.NotContains(t, plain, "Página 2 de 4")
}

func TestGuideTitleFromBodyWhenFilenamePlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guia.docx")
	newDocxBuilder().
		para("", "(7) Zell - Alta de clientes").
		para("", "OBJETIVO").
		para("", "Registrar clientes nuevos.").
		writeTo(t, path)

	_, blocks, meta, err := Extract(path, UniverseGuides)
	require.NoError(t, err)

	assert.Equal(t, "Alta de clientes", meta.Title)
	assert.Equal(t, 7, meta.DocNumber)
	require.NotEmpty(t, blocks)
	assert.Equal(t, "Alta de clientes", blocks[0].Text)
}

func TestGuideExplicitNumberedSteps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "(3) Zell - Facturación.docx")
	newDocxBuilder().
		para("", "Facturación").
		para("", "DESARROLLO").
		para("", "1. Abrir el menú de facturas").
		para("", "Paso 2) Capturar los datos del cliente").
		writeTo(t, path)

	_, blocks, _, err := Extract(path, UniverseGuides)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	s1 := blocks[1]
	assert.Equal(t, 1, s1.StepNumber)
	assert.Equal(t, "1", s1.StepLabel)
	assert.Equal(t, "DESARROLLO - Paso 1", s1.Section)

	s2 := blocks[2]
	assert.Equal(t, 2, s2.StepNumber)
	assert.Equal(t, "Paso 2", s2.StepLabel)
	assert.Equal(t, "DESARROLLO - Paso 2", s2.Section)
}

func TestGuideTitleFallbackToFilename(t *testing.T) {
	path := filepath.Join(t.TempDir(), "(9) Zell - Consultas.docx")
	newDocxBuilder().writeTo(t, path)

	_, blocks, meta, err := Extract(path, UniverseGuides)
	require.NoError(t, err)

	assert.Empty(t, blocks)
	assert.Equal(t, "Consultas", meta.Title)
	assert.Equal(t, 9, meta.DocNumber)
}

func TestGuideHeaderFooterDetection(t *testing.T) {
	assert.True(t, isGuideHeaderFooter("Guía de Usuario Cobranza"))
	assert.True(t, isGuideHeaderFooter("Página 3 de 10"))
	assert.True(t, isGuideHeaderFooter("Sistema Zell"))
	assert.True(t, isGuideHeaderFooter(""))
	assert.False(t, isGuideHeaderFooter("Contenido normal del documento"))
}
