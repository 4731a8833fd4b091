package perl

import (
	"github.com/flosch/pongo2/v6"
	"github.com/gqlc/gqlc-perl/gen"
	"github.com/vektah/gqlparser/v2/ast"
)

var rolesTmpl = pongo2.Must(pongo2.FromString(`{% autoescape off %}
package {{ ns }}::Roles;

use Moose::Role;
use Scalar::Util qw(blessed);

sub to_plain {
    my ($value) = @_;
    if (blessed($value) && $value->can('does') && $value->does('{{ ns }}::Roles')) {
        return $value->as_hash;
    }
    if (ref($value) eq 'ARRAY') {
        return [ map { to_plain($_) } @$value ];
    }
    return $value;
}

sub as_hash {
    my ($self) = @_;
    my %hash;
    for my $attr ($self->meta->get_all_attributes) {
        next unless $attr->has_value($self);
        $hash{ $attr->name } = to_plain($attr->get_value($self));
    }
    return \%hash;
}

no Moose::Role;

1;
{% endautoescape %}`))

var clientTmpl = pongo2.Must(pongo2.FromString(`{% autoescape off %}
package {{ pkg }};

use Moose;
use Carp qw(croak);
use Class::MOP;
use HTTP::Tiny;
use JSON::PP;

has 'url' => (
    is => 'ro',
    isa => 'Str',
    required => 1
);

has 'headers' => (
    is => 'ro',
    isa => 'HashRef[Str]',
    default => sub { return {}; }
);

has 'http' => (
    is => 'ro',
    isa => 'HTTP::Tiny',
    lazy => 1,
    default => sub { return HTTP::Tiny->new; }
);

has 'operations' => (
    is => 'ro',
    isa => '{{ pkg }}::Operations',
    lazy => 1,
    default => sub { return {{ pkg }}::Operations->new; }
);

has '_root_types' => (
    is => 'ro',
    isa => 'HashRef[Str]',
    lazy => 1,
    init_arg => undef,
    builder => '_build_root_types'
);

sub _build_root_types {
    my ($self) = @_;
    my %types;
    for my $root ({% for root in roots %}'{{ root }}'{% if not forloop.Last %}, {% endif %}{% endfor %}) {
        %types = (%types, %{ _attribute_types($root) });
    }
    return \%types;
}

sub _attribute_types {
    my ($class) = @_;
    my $meta = Class::MOP::class_of($class);
    return {} unless $meta && $meta->isa('Class::MOP::Class');
    my %types;
    for my $attr ($meta->get_all_attributes) {
        next unless $attr->has_type_constraint;
        $types{ $attr->name } = $attr->type_constraint->name;
    }
    return \%types;
}

sub execute {
    my ($self, $name, @args) = @_;
    croak "Unknown operation '$name'" unless $self->operations->can($name);
    return $self->send($self->operations->$name(@args));
}

sub send {
    my ($self, $request) = @_;
    my $res = $self->http->post($self->url, {
        headers => { %{ $self->headers }, 'Content-Type' => 'application/json' },
        content => JSON::PP->new->utf8->canonical->encode($request),
    });
    croak "Request failed: $res->{status} $res->{content}" unless $res->{success};

    my $body = JSON::PP->new->utf8->decode($res->{content});
    return $self->_hydrate($self->_root_types, $body->{data});
}

sub _hydrate {
    my ($self, $types, $data) = @_;
    return $data unless ref($data) eq 'HASH';
    my %out;
    for my $key (keys %$data) {
        my $value = $data->{$key};
        next unless defined $value;
        my $type = $types->{$key};
        $out{$key} = defined $type ? $self->_hydrate_value($type, $value) : $value;
    }
    return \%out;
}

sub _hydrate_value {
    my ($self, $type, $value) = @_;
    return undef unless defined $value;
    if ($type =~ /^ArrayRef\[(.+)\]$/) {
        my $elem = $1;
        return $value unless ref($value) eq 'ARRAY';
        return [ map { $self->_hydrate_value($elem, $_) } @$value ];
    }
    return $value unless ref($value) eq 'HASH';

    my $class = $type;
    if (defined $value->{__typename}) {
        my $named = '{{ ns }}::' . $value->{__typename};
        $class = $named if Class::MOP::class_of($named);
    }
    my $meta = Class::MOP::class_of($class);
    return $value unless $meta && $meta->isa('Class::MOP::Class');

    my $args = $self->_hydrate(_attribute_types($class), $value);
    delete $args->{__typename};
    my $obj = eval { $class->new(%$args) };
    return defined $obj ? $obj : $args;
}

no Moose;

1;
{% endautoescape %}`))

// generateRoles generates the role every generated class consumes. It
// converts instances back into plain data for request variables.
func (g *Generator) generateRoles(opts *Options) error {
	return rolesTmpl.ExecuteWriter(pongo2.Context{
		"ns": opts.typesNamespace(),
	}, &g.Buffer)
}

// generateClient generates the HTTP client package.
func (g *Generator) generateClient(doc *gen.Document, opts *Options) error {
	ns := opts.typesNamespace()

	var roots []string
	for _, root := range []string{rootName(doc.Schema.Query), rootName(doc.Schema.Mutation)} {
		if root != "" {
			roots = append(roots, ns+"::"+root)
		}
	}

	return clientTmpl.ExecuteWriter(pongo2.Context{
		"pkg":   opts.PackageName,
		"ns":    ns,
		"roots": roots,
	}, &g.Buffer)
}

func rootName(def *ast.Definition) string {
	if def == nil {
		return ""
	}
	return def.Name
}
