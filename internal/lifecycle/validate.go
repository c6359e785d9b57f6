package lifecycle

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/satohidetada/my-flea-app/internal/models"
)

const (
	MinRating              = 1
	MaxRating              = 5
	MaxMessageLength       = 2000
	MaxReviewCommentLength = 1000
	MaxCommentLength       = 500
	MaxItemNameLength      = 100
	MaxDescriptionLength   = 3000
	MaxItemImages          = 10
	MaxPrice               = 9_999_999
	MaxDisplayNameLength   = 50
	MaxBioLength           = 500
	MaxPrefectureLength    = 10
)

// ValidateRating requires an integer rating in [1,5].
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return Errorf(ErrValidation, "rating must be between %d and %d, got %d", MinRating, MaxRating, rating)
	}
	return nil
}

// ValidateReviewComment trims the optional review comment and checks its length.
func ValidateReviewComment(comment string) (string, error) {
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > MaxReviewCommentLength {
		return "", Errorf(ErrValidation, "review comment must be at most %d characters", MaxReviewCommentLength)
	}
	return comment, nil
}

// MessageContent is the body of a chat message.
type MessageContent struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
}

// Normalize trims the content and requires text or an image.
func (c MessageContent) Normalize() (MessageContent, error) {
	c.Text = strings.TrimSpace(c.Text)
	c.ImageURL = strings.TrimSpace(c.ImageURL)
	if c.Text == "" && c.ImageURL == "" {
		return c, Errorf(ErrValidation, "message needs text or an image")
	}
	if utf8.RuneCountInString(c.Text) > MaxMessageLength {
		return c, Errorf(ErrValidation, "message must be at most %d characters", MaxMessageLength)
	}
	if c.ImageURL != "" {
		if err := validateImageURL(c.ImageURL); err != nil {
			return c, err
		}
	}
	return c, nil
}

// ValidateCommentText trims a public item comment and checks it.
func ValidateCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", Errorf(ErrValidation, "comment must not be empty")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return "", Errorf(ErrValidation, "comment must be at most %d characters", MaxCommentLength)
	}
	return text, nil
}

// ItemInput is what a seller submits when listing an item.
type ItemInput struct {
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Description string   `json:"description"`
	ImageURLs   []string `json:"image_urls"`
}

// Normalize trims the input and validates every field.
func (in ItemInput) Normalize() (ItemInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURLs = trimAll(in.ImageURLs)

	if err := validateName(in.Name); err != nil {
		return in, err
	}
	if err := validatePrice(in.Price); err != nil {
		return in, err
	}
	if err := validateDescription(in.Description); err != nil {
		return in, err
	}
	if err := validateImages(in.ImageURLs); err != nil {
		return in, err
	}
	return in, nil
}

// ItemPatch is a partial edit. Nil fields are left unchanged.
type ItemPatch struct {
	Name        *string   `json:"name"`
	Price       *int64    `json:"price"`
	Description *string   `json:"description"`
	ImageURLs   *[]string `json:"image_urls"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Description == nil && p.ImageURLs == nil
}

// Normalize trims and validates the fields present in the patch.
func (p ItemPatch) Normalize() (ItemPatch, error) {
	if p.IsEmpty() {
		return p, Errorf(ErrValidation, "nothing to update")
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if err := validateName(name); err != nil {
			return p, err
		}
		p.Name = &name
	}
	if p.Price != nil {
		if err := validatePrice(*p.Price); err != nil {
			return p, err
		}
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		if err := validateDescription(desc); err != nil {
			return p, err
		}
		p.Description = &desc
	}
	if p.ImageURLs != nil {
		images := trimAll(*p.ImageURLs)
		if err := validateImages(images); err != nil {
			return p, err
		}
		p.ImageURLs = &images
	}
	return p, nil
}

// Apply writes the patch onto item.
func (p ItemPatch) Apply(item *models.Item) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.ImageURLs != nil {
		item.ImageURLs = append([]string(nil), (*p.ImageURLs)...)
	}
}

// NormalizeProfilePatch trims and validates the fields present in a profile edit.
func NormalizeProfilePatch(p models.ProfilePatch) (models.ProfilePatch, error) {
	if p.DisplayName == nil && p.PhotoURL == nil && p.Prefecture == nil && p.Bio == nil {
		return p, Errorf(ErrValidation, "nothing to update")
	}
	trim := func(field *string, name string, max int) (*string, error) {
		if field == nil {
			return nil, nil
		}
		v := strings.TrimSpace(*field)
		if utf8.RuneCountInString(v) > max {
			return nil, Errorf(ErrValidation, "%s must be at most %d characters", name, max)
		}
		return &v, nil
	}

	var err error
	if p.DisplayName, err = trim(p.DisplayName, "display name", MaxDisplayNameLength); err != nil {
		return p, err
	}
	if p.DisplayName != nil && *p.DisplayName == "" {
		return p, Errorf(ErrValidation, "display name must not be empty")
	}
	if p.Prefecture, err = trim(p.Prefecture, "prefecture", MaxPrefectureLength); err != nil {
		return p, err
	}
	if p.Bio, err = trim(p.Bio, "bio", MaxBioLength); err != nil {
		return p, err
	}
	if p.PhotoURL != nil {
		photo := strings.TrimSpace(*p.PhotoURL)
		if photo != "" {
			if err := validateImageURL(photo); err != nil {
				return p, err
			}
		}
		p.PhotoURL = &photo
	}
	return p, nil
}

func validateName(name string) error {
	if name == "" {
		return Errorf(ErrValidation, "name must not be empty")
	}
	if utf8.RuneCountInString(name) > MaxItemNameLength {
		return Errorf(ErrValidation, "name must be at most %d characters", MaxItemNameLength)
	}
	return nil
}

func validatePrice(price int64) error {
	if price <= 0 {
		return Errorf(ErrValidation, "price must be positive")
	}
	if price > MaxPrice {
		return Errorf(ErrValidation, "price must be at most %d", MaxPrice)
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return Errorf(ErrValidation, "description must be at most %d characters", MaxDescriptionLength)
	}
	return nil
}

func validateImages(images []string) error {
	if len(images) == 0 {
		return Errorf(ErrValidation, "at least one image is required")
	}
	if len(images) > MaxItemImages {
		return Errorf(ErrValidation, "at most %d images are allowed", MaxItemImages)
	}
	for _, u := range images {
		if err := validateImageURL(u); err != nil {
			return err
		}
	}
	return nil
}

func validateImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return Errorf(ErrValidation, "invalid image URL %q", raw)
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
