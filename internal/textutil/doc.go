// Package textutil provides text normalization helpers shared by the
// scrubbing and review stages: Polish diacritic folding and a lightweight
// stemmer used for inflection-tolerant keyword matching in advertisement
// descriptions.
package textutil
