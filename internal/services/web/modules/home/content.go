package home

// Fixed prose pages. Bodies are trusted in-module HTML rendered inside the
// shared layout.

const aboutBody = `
<p>The Metadata Standards Catalog is a directory of metadata standards
relevant to research data, maintained by and for the research data
community. It records the standards themselves along with the tools that
implement them, crosswalks that translate between them, the organizations
that maintain and fund them, and formal endorsements of their use.</p>
<p>The catalog is deliberately broad in scope: any standard used to
describe, package, or exchange research data may be listed, whether it is
an international standard, a community convention, or a profile of another
standard.</p>
<p>Records are contributed and corrected by the community. Anyone may read
the catalog; contributors sign in with an existing account from a
supported service to make changes.</p>
`

const termsBody = `
<p>The textual content of the catalog is available for reuse under the
Creative Commons Attribution licence. Contributions are accepted on the
understanding that they may be edited by others and redistributed.</p>
<p>Do not add content you do not have the right to share. Records that
misrepresent a standard or an organization will be corrected or removed.</p>
<p>The catalog is provided in the hope that it is useful, without warranty
of any kind. Links to external resources are checked when records are
edited but their targets may change.</p>
`

const accessibilityBody = `
<p>The catalog is built to work with assistive technology: every page can
be navigated by keyboard, form fields are labelled, and content is
presented as structured HTML without scripts being required.</p>
<p>If a page does not work with your browser or assistive technology,
please report it so it can be fixed.</p>
`

const contributeBody = `
<p>Anyone can improve the catalog. After signing in you can add new
records or correct existing ones using the edit link on each page.</p>
<p>Each record type has its own form. Required fields are the minimum for
a valid record; filling in the remaining fields raises the record's
completeness rating, which is shown while you edit.</p>
<p>When describing a standard, link it to the organizations that maintain
and fund it, the tools that implement it, and any crosswalks to other
standards. These relationships are what make the catalog navigable.</p>
`
