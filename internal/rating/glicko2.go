// Package rating applies Glicko-2 updates to ranked match results.
package rating

import "math"

const (
	// GlickoScale is the multiplier used for converting between Elo and Glicko2's mu.
	GlickoScale = 173.7178
	// DefaultMu is the baseline rating (1500) in Glicko2 terms.
	DefaultMu = 1500.0
	// DefaultPhi is the baseline rating deviation (RD) in Glicko2 terms (350).
	DefaultPhi = 350.0
	// DefaultSigma is the starting volatility.
	DefaultSigma = 0.06
	// Tau is the constraint on volatility changes.
	Tau = 0.5
	// Epsilon is the tolerance used in iteration stopping conditions.
	Epsilon = 0.000001
)

// Rating is a player's rating on the 1500-based scale, as stored.
type Rating struct {
	Elo   float64 `json:"elo"`
	RD    float64 `json:"rd"`
	Sigma float64 `json:"sigma"`
}

// Default is the rating of a player with no ranked games.
func Default() Rating {
	return Rating{Elo: DefaultMu, RD: DefaultPhi, Sigma: DefaultSigma}
}

// glicko2 is a rating transformed into Glicko2 space.
type glicko2 struct {
	mu    float64
	phi   float64
	sigma float64
}

func toGlicko2(r Rating) glicko2 {
	return glicko2{
		mu:    (r.Elo - DefaultMu) / GlickoScale,
		phi:   r.RD / GlickoScale,
		sigma: r.Sigma,
	}
}

func (g2 glicko2) rating() Rating {
	return Rating{
		Elo:   g2.mu*GlickoScale + DefaultMu,
		RD:    g2.phi * GlickoScale,
		Sigma: g2.sigma,
	}
}

// Update1v1 rates a decided match. Both players are updated against each other's
// pre-match rating.
func Update1v1(winner, loser Rating) (Rating, Rating) {
	return Update(winner, loser, 1), Update(loser, winner, 0)
}

// Update performs a single-match Glicko2 update with volatility for r against opp,
// given r's score in [0..1].
func Update(r, opp Rating, score float64) Rating {
	p, o := toGlicko2(r), toGlicko2(opp)

	gVal := g(o.phi)
	EVal := E(p.mu, o.mu, o.phi)
	v := 1.0 / (gVal * gVal * EVal * (1 - EVal))
	delta := v * gVal * (score - EVal)

	// Volatility by the Illinois method.
	a := math.Log(p.sigma * p.sigma)
	A := a
	var B float64
	if delta*delta > p.phi*p.phi+v {
		B = math.Log(delta*delta - p.phi*p.phi - v)
	} else {
		k := 1.0
		for f(a-k*Tau, p.phi, v, delta, a) < 0 {
			k++
		}
		B = a - k*Tau
	}
	fA := f(A, p.phi, v, delta, a)
	fB := f(B, p.phi, v, delta, a)
	for i := 0; i < 100 && math.Abs(B-A) > Epsilon; i++ {
		C := A + (A-B)*fA/(fB-fA)
		fC := f(C, p.phi, v, delta, a)
		if fC*fB <= 0 {
			A, fA = B, fB
		} else {
			fA /= 2
		}
		B, fB = C, fC
	}

	newSigma := math.Exp(A / 2)
	phiStar := math.Sqrt(p.phi*p.phi + newSigma*newSigma)
	phiPrime := 1.0 / math.Sqrt(1.0/(phiStar*phiStar)+1.0/v)
	muPrime := p.mu + phiPrime*phiPrime*gVal*(score-EVal)

	return glicko2{mu: muPrime, phi: phiPrime, sigma: newSigma}.rating()
}

// g is the G(phi) factor from Glicko2, applying the standard formula 1/sqrt(1+3phi^2/pi^2).
func g(phi float64) float64 {
	return 1.0 / math.Sqrt(1.0+3.0*phi*phi/math.Pi/math.Pi)
}

// E is the expected score formula in Glicko2 space, E(mu,mu2,phi2)=1/(1+exp[-g(phi2)*(mu-mu2)])
func E(mu, mu2, phi2 float64) float64 {
	return 1.0 / (1.0 + math.Exp(-g(phi2)*(mu-mu2)))
}

// f is the Glicko2 volatility root-finding function.
func f(x, phi, v, delta, a float64) float64 {
	ex := math.Exp(x)
	num := ex * (delta*delta - phi*phi - v - ex)
	den := 2.0 * (phi*phi + v + ex) * (phi*phi + v + ex)
	return (num / den) - ((x - a) / (Tau * Tau))
}
