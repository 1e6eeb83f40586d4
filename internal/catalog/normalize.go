package catalog

import (
	"strings"

	"reelmatch/internal/catalog/tmdb"
)

const (
	defaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	defaultRegion       = "US"
)

// entryFromResult converts a TMDB payload into the canonical Entry shape.
// This is the single normalization boundary for full records.
func entryFromResult(res tmdb.Result, imageBaseURL, region string) Entry {
	return Entry{
		ID:          res.ID,
		Title:       displayTitle(res),
		Year:        releaseYear(res),
		MediaType:   mediaTypeOf(res),
		Rating:      certification(res, region),
		Genres:      genreNames(res.Genres),
		Overview:    strings.TrimSpace(res.Overview),
		VoteAverage: res.VoteAverage,
		PosterURL:   posterURL(imageBaseURL, res.PosterPath),
	}
}

// searchResultFromResult converts a slim search row.
func searchResultFromResult(res tmdb.Result) SearchResult {
	return SearchResult{
		ID:        res.ID,
		Title:     displayTitle(res),
		Year:      releaseYear(res),
		MediaType: mediaTypeOf(res),
	}
}

func displayTitle(res tmdb.Result) string {
	if title := strings.TrimSpace(res.Title); title != "" {
		return title
	}
	return strings.TrimSpace(res.Name)
}

func releaseYear(res tmdb.Result) string {
	date := res.ReleaseDate
	if date == "" {
		date = res.FirstAirDate
	}
	if len(date) >= 4 {
		return date[:4]
	}
	return ""
}

func mediaTypeOf(res tmdb.Result) MediaType {
	if res.MediaType == "tv" || (res.MediaType == "" && res.FirstAirDate != "") {
		return MediaTypeSeries
	}
	return MediaTypeMovie
}

// certification extracts the maturity rating, preferring the configured
// region and falling back to the first non-empty rating from any region.
func certification(res tmdb.Result, region string) string {
	if region == "" {
		region = defaultRegion
	}

	if res.ReleaseDates != nil {
		var fallback string
		for _, regional := range res.ReleaseDates.Results {
			for _, release := range regional.Releases {
				cert := strings.TrimSpace(release.Certification)
				if cert == "" {
					continue
				}
				if strings.EqualFold(regional.Region, region) {
					return cert
				}
				if fallback == "" {
					fallback = cert
				}
			}
		}
		if fallback != "" {
			return fallback
		}
	}

	if res.ContentRatings != nil {
		var fallback string
		for _, regional := range res.ContentRatings.Results {
			rating := strings.TrimSpace(regional.Rating)
			if rating == "" {
				continue
			}
			if strings.EqualFold(regional.Region, region) {
				return rating
			}
			if fallback == "" {
				fallback = rating
			}
		}
		if fallback != "" {
			return fallback
		}
	}
	return ""
}

func genreNames(genres []tmdb.Genre) []string {
	if len(genres) == 0 {
		return nil
	}
	names := make([]string, 0, len(genres))
	for _, genre := range genres {
		if name := strings.TrimSpace(genre.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func posterURL(imageBaseURL, posterPath string) string {
	posterPath = strings.TrimSpace(posterPath)
	if posterPath == "" {
		return ""
	}
	if imageBaseURL == "" {
		imageBaseURL = defaultImageBaseURL
	}
	return strings.TrimRight(imageBaseURL, "/") + "/" + strings.TrimLeft(posterPath, "/")
}
