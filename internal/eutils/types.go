package eutils

import "encoding/xml"

// esearchResult is the envelope returned by esearch.fcgi with
// retmode=xml. Only the fields the client consumes are mapped.
type esearchResult struct {
	XMLName   xml.Name       `xml:"eSearchResult"`
	Count     int            `xml:"Count"`
	RetMax    int            `xml:"RetMax"`
	RetStart  int            `xml:"RetStart"`
	IDList    esearchIDList  `xml:"IdList"`
	ErrorList *esearchErrors `xml:"ErrorList"`
}

type esearchIDList struct {
	IDs []string `xml:"Id"`
}

type esearchErrors struct {
	PhraseNotFound []string `xml:"PhraseNotFound"`
	FieldNotFound  []string `xml:"FieldNotFound"`
}
