// Package ratings maps maturity-rating ceilings to admissible rating sets.
//
// Two parallel scales are recognized: the film scale (G, PG, PG-13, R) and
// the series scale (TV-Y, TV-PG, TV-14, TV-MA). A ceiling on either scale
// admits every rating at or below it on its own scale plus the hand-authored
// equivalents on the other scale, so a viewer who accepts PG-13 films also
// accepts TV-14 series. The equivalence table is precomputed at package init;
// lookups are pure and allocation returns copies.
package ratings
