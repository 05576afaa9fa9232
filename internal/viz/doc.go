// Package viz renders simulation output for terminals.
//
//   - [HalfBlocks]: a composed frame as coloured half-block cells
//   - [Profile]: a braille height cross-section
//   - [Plot], [PlotMany]: asciigraph charts of recorded metrics
//   - lipgloss styles and [Theme] colours for the preview chrome
package viz
