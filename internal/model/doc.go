// Package model defines the core data structures shared by jssift packages.
//
// This package contains the following main types:
//   - CrawlTarget: the absolute root page a run analyzes
//   - ScriptReference: one discovered external script
//   - AnalysisResult: the terminal outcome of analyzing one script
//   - RunSummary: the aggregate record of a run, used by reports and history
//
// It also defines the error taxonomy of a run (TransportError, ParseError,
// PersistenceError and CrawlError). Keeping these types in one package lets
// the sifter, store, database and report packages share them without
// import cycles.
package model
