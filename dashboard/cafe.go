package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/ray-remotestate/cafedash/cafeapi"
	"github.com/ray-remotestate/cafedash/models"
	"github.com/ray-remotestate/cafedash/reconcile"
)

// Section names one editor of the café profile.
type Section string

const (
	SectionInfo        Section = "info"
	SectionDescription Section = "description"
	SectionImages      Section = "images"
	SectionHours       Section = "hours"
	SectionPayments    Section = "payments"
	SectionLocation    Section = "location"
	SectionContact     Section = "contact"
	SectionSocial      Section = "social"
	SectionOwner       Section = "owner"
	SectionStaff       Section = "staff"
)

const maxPhotos = 5

var Sections = []Section{
	SectionInfo, SectionDescription, SectionImages, SectionHours, SectionPayments,
	SectionLocation, SectionContact, SectionSocial, SectionOwner, SectionStaff,
}

func (s Section) IsValid() bool {
	for _, known := range Sections {
		if s == known {
			return true
		}
	}
	return false
}

// scope keeps only the fields the section's editor owns.
func (s Section) scope(in models.CafeUpdate) (models.CafeUpdate, error) {
	var out models.CafeUpdate
	switch s {
	case SectionInfo:
		out.Name = in.Name
		out.Affiliation = in.Affiliation
	case SectionDescription:
		out.Description = in.Description
	case SectionImages:
		out.LogoURL = in.LogoURL
		out.BannerURL = in.BannerURL
		out.PhotoURLs = in.PhotoURLs
	case SectionHours:
		out.OpeningHours = in.OpeningHours
	case SectionPayments:
		out.PaymentDetails = in.PaymentDetails
	case SectionLocation:
		out.Location = in.Location
	case SectionContact:
		out.Contact = in.Contact
	case SectionSocial:
		out.SocialMedia = in.SocialMedia
	case SectionOwner:
		out.OwnerID = in.OwnerID
		out.Owner = in.Owner
	case SectionStaff:
		out.Staff = in.Staff
	default:
		return out, &cafeapi.ValidationError{Field: "section", Message: fmt.Sprintf("Unknown section %q", s)}
	}
	return out, nil
}

func validateCafeUpdate(u models.CafeUpdate) error {
	var errs *multierror.Error
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		errs = invalid(errs, "name", "Cafe name is required")
	}
	if len(u.PhotoURLs) > maxPhotos {
		errs = invalid(errs, "photo_urls", fmt.Sprintf("At most %d photos are allowed", maxPhotos))
	}
	for _, day := range u.OpeningHours {
		for i, block := range day.Blocks {
			if block.Start == "" || block.End == "" {
				errs = invalid(errs, fmt.Sprintf("opening_hours.%s[%d]", day.Day, i), "Opening hours need a start and an end")
			}
		}
	}
	for i, p := range u.PaymentDetails {
		if strings.TrimSpace(p.Method) == "" {
			errs = invalid(errs, fmt.Sprintf("payment_details[%d]", i), "Payment method is required")
		}
		if p.Minimum != nil && *p.Minimum < 0 {
			errs = invalid(errs, fmt.Sprintf("payment_details[%d]", i), "Minimum must not be negative")
		}
	}
	if u.Owner != nil && u.OwnerID == nil && strings.TrimSpace(u.Owner.ID) == "" {
		errs = invalid(errs, "owner", "Owner id is required")
	}
	if u.Staff != nil {
		members := append(append([]models.UserProfile{}, u.Staff.Admins...), u.Staff.Volunteers...)
		for i, m := range members {
			if strings.TrimSpace(m.FirstName) == "" || strings.TrimSpace(m.LastName) == "" || strings.TrimSpace(m.Email) == "" {
				errs = invalid(errs, fmt.Sprintf("staff[%d]", i), "Staff members need a first name, a last name and an email")
			}
		}
	}
	return errs.ErrorOrNil()
}

// CafePage is the profile editor of the owned café.
type CafePage struct {
	api API

	mu      sync.RWMutex
	sess    *models.Session
	slug    string
	cafe    *reconcile.Value[models.Cafe]
	initErr error
}

func NewCafePage(api API) *CafePage {
	return &CafePage{api: api}
}

// Init resolves the owned café and loads its profile. Reloading while a
// section is being saved fails with reconcile.ErrSubmitting.
func (p *CafePage) Init(ctx context.Context, sess *models.Session) error {
	owned, err := ownedCafe(sess)
	if err != nil {
		p.mu.Lock()
		p.initErr = err
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	if p.cafe != nil && p.slug != owned.Slug {
		if p.cafe.Submitting() {
			p.mu.Unlock()
			return reconcile.ErrSubmitting
		}
		p.cafe = nil
	}
	if p.cafe == nil {
		slug := owned.Slug
		p.cafe = reconcile.NewValue(func(ctx context.Context) (models.Cafe, error) {
			p.mu.RLock()
			current := p.sess
			p.mu.RUnlock()
			c, err := p.api.GetCafe(ctx, current, slug)
			if err != nil {
				return models.Cafe{}, err
			}
			return *c, nil
		})
	}
	p.sess = sess
	p.slug = owned.Slug
	p.initErr = nil
	cafe := p.cafe
	p.mu.Unlock()

	return cafe.Load(ctx)
}

// Ensure loads the page unless it already holds the café.
func (p *CafePage) Ensure(ctx context.Context, sess *models.Session) error {
	if state, _ := p.State(); state == reconcile.Ready {
		return nil
	}
	return p.Init(ctx, sess)
}

func (p *CafePage) State() (reconcile.State, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.initErr != nil {
		return reconcile.Failed, p.initErr
	}
	if p.cafe == nil {
		return reconcile.Loading, nil
	}
	return p.cafe.State()
}

func (p *CafePage) Cafe() models.Cafe {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.cafe == nil {
		return models.Cafe{}
	}
	return p.cafe.Get()
}

// Save sends the section's fields of update and replaces the local profile
// with the café the server returned.
func (p *CafePage) Save(ctx context.Context, sess *models.Session, section Section, update models.CafeUpdate) (models.Cafe, error) {
	scoped, err := section.scope(update)
	if err != nil {
		return models.Cafe{}, err
	}
	if err := validateCafeUpdate(scoped); err != nil {
		return models.Cafe{}, err
	}

	p.mu.RLock()
	slug, cafe := p.slug, p.cafe
	p.mu.RUnlock()
	if cafe == nil {
		if _, err := ownedCafe(sess); err != nil {
			return models.Cafe{}, err
		}
		return models.Cafe{}, ErrNotLoaded
	}

	return cafe.Replace(ctx, func(ctx context.Context) (models.Cafe, error) {
		updated, err := p.api.UpdateCafe(ctx, sess, slug, scoped)
		if err != nil {
			return models.Cafe{}, err
		}
		return *updated, nil
	})
}

type CafeView struct {
	View
	Cafe *models.Cafe `json:"cafe,omitempty"`
}

func (p *CafePage) View() CafeView {
	state, err := p.State()
	v := CafeView{View: viewOf(state, err)}
	if state == reconcile.Ready {
		cafe := p.Cafe()
		v.Cafe = &cafe
	}
	return v
}
