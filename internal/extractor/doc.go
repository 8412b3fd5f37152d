// Package extractor turns source documents into structured blocks ready for
// chunking.
//
// Plain text and markdown pass through as a single text block. Word
// documents are read straight from the OOXML zip (word/document.xml) so
// paragraphs and tables keep their document order. On top of the generic
// paragraph/table walk there are two specialized parsers: weekly meeting
// minutes, which become one whole-meeting summary block plus one block per
// agenda topic, and Zell user guides, which become a title block plus one
// block per step with explicit or inferred step labels.
package extractor
