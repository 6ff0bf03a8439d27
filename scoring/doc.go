// Package scoring assigns each chunk a relevance score in [0,1]
// against a task description. The score is a weighted sum of four
// factors (keyword overlap, position, structure, recency) with weights
// selected by task type. Scoring never fails upward: any internal error
// degrades to a neutral 0.5 score for every chunk.
package scoring
