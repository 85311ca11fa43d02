package transfer

import "time"

type ConnectResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

type ConnectionStatus struct {
	Connected bool       `json:"connected"`
	Expiry    *time.Time `json:"expiry"`
	IsExpired bool       `json:"isExpired"`
}

type LinkedInUserInfo struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name,omitempty"`
	FamilyName    string `json:"family_name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified,omitempty"`
}

type LinkedInProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Sub   string `json:"sub"`
}

type LinkedInErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// UGCPost is the body LinkedIn's /v2/ugcPosts endpoint expects.
type UGCPost struct {
	Author          string             `json:"author"`
	LifecycleState  string             `json:"lifecycleState"`
	SpecificContent UGCSpecificContent `json:"specificContent"`
	Visibility      UGCVisibility      `json:"visibility"`
}

type UGCSpecificContent struct {
	ShareContent UGCShareContent `json:"com.linkedin.ugc.ShareContent"`
}

type UGCShareContent struct {
	ShareCommentary    UGCText    `json:"shareCommentary"`
	ShareMediaCategory string     `json:"shareMediaCategory"`
	Media              []UGCMedia `json:"media"`
}

type UGCMedia struct {
	Status      string  `json:"status"`
	Description UGCText `json:"description"`
	Media       string  `json:"media"`
	Title       UGCText `json:"title"`
}

type UGCText struct {
	Text string `json:"text"`
}

type UGCVisibility struct {
	MemberNetworkVisibility string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
}
